package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func key(node string, fp uint64) Key {
	return Key{Node: node, Template: "greeting", Fingerprint: fp}
}

func TestGetMissThenHit(t *testing.T) {
	c := New(4)

	if _, ok := c.Get(key("greet", 1)); ok {
		t.Fatal("empty cache returned a hit")
	}

	c.Put(key("greet", 1), Entry{Text: "'Hello.'", Target: "chat"})
	e, ok := c.Get(key("greet", 1))
	if !ok || e.Text != "'Hello.'" || e.Target != "chat" {
		t.Errorf("Get = %+v, %v", e, ok)
	}

	// Different fingerprint is a different entry.
	if _, ok := c.Get(key("greet", 2)); ok {
		t.Error("fingerprint 2 hit fingerprint 1's entry")
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(2)
	c.Put(key("a", 1), Entry{Text: "a"})
	c.Put(key("b", 1), Entry{Text: "b"})

	// Touch a so b is the eviction candidate.
	c.Get(key("a", 1))
	c.Put(key("c", 1), Entry{Text: "c"})

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get(key("b", 1)); ok {
		t.Error("least-recently-used entry survived eviction")
	}
	if _, ok := c.Get(key("a", 1)); !ok {
		t.Error("recently used entry was evicted")
	}
}

func TestInvalidateDropsOnlyThatNode(t *testing.T) {
	c := New(8)
	c.Put(key("greet", 1), Entry{Text: "a"})
	c.Put(key("greet", 2), Entry{Text: "b"})
	c.Put(key("farewell", 1), Entry{Text: "c"})

	if n := c.Invalidate("greet"); n != 2 {
		t.Errorf("Invalidate(greet) = %d, want 2", n)
	}
	if _, ok := c.Get(key("greet", 1)); ok {
		t.Error("invalidated entry still cached")
	}
	if _, ok := c.Get(key("farewell", 1)); !ok {
		t.Error("unrelated node was invalidated")
	}
	if n := c.Invalidate("greet"); n != 0 {
		t.Errorf("second Invalidate = %d, want 0", n)
	}
}

func TestGetOrRenderFillsOnMiss(t *testing.T) {
	c := New(4)
	calls := 0
	render := func() Entry {
		calls++
		return Entry{Text: "rendered"}
	}

	if e := c.GetOrRender(key("greet", 1), render); e.Text != "rendered" {
		t.Errorf("first GetOrRender = %+v", e)
	}
	if e := c.GetOrRender(key("greet", 1), render); e.Text != "rendered" {
		t.Errorf("second GetOrRender = %+v", e)
	}
	if calls != 1 {
		t.Errorf("render ran %d times, want 1", calls)
	}
}

func TestGetOrRenderDeduplicatesConcurrentMisses(t *testing.T) {
	c := New(4)
	var calls atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := c.GetOrRender(key("greet", 7), func() Entry {
				calls.Add(1)
				return Entry{Text: "once"}
			})
			if e.Text != "once" {
				t.Errorf("got %+v", e)
			}
		}()
	}
	wg.Wait()

	// Racing goroutines may each start a flight, but the recheck keeps
	// duplicate renders from being stored; typically this is exactly 1.
	if got := calls.Load(); got < 1 || got > 2 {
		t.Errorf("render ran %d times", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestEvictionKeepsInvalidationIndexConsistent(t *testing.T) {
	c := New(2)
	for i := 0; i < 5; i++ {
		c.Put(key("greet", uint64(i)), Entry{Text: fmt.Sprint(i)})
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if n := c.Invalidate("greet"); n != 2 {
		t.Errorf("Invalidate = %d, want 2 (index out of sync with entries)", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len after invalidate = %d", c.Len())
	}
}
