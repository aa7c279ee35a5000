package state

import (
	"testing"

	"github.com/nathoo/dialoguecore/types"
)

func TestStoreGetAbsent(t *testing.T) {
	s := NewStore()
	if v := s.Get("reputation"); !v.IsAbsent() {
		t.Errorf("unset key returned %s, want absent", v)
	}
}

func TestStoreSetAndDelete(t *testing.T) {
	s := NewStore()
	s.Set("reputation", types.Int(60))
	if v := s.Get("reputation"); !v.Equal(types.Int(60)) {
		t.Errorf("Get = %s, want 60", v)
	}

	s.Set("reputation", types.Absent())
	if v := s.Get("reputation"); !v.IsAbsent() {
		t.Errorf("set-to-absent left %s behind", v)
	}
}

func TestCommitIsOneVersionBump(t *testing.T) {
	s := NewStore()
	before := s.Version()

	s.Commit([]types.MutationRecord{
		{Key: "visits", New: types.Int(1)},
		{Key: "met_player", New: types.Bool(true)},
		{Key: "mood", New: types.String("warm")},
	})

	if got := s.Version(); got != before+1 {
		t.Errorf("batch of 3 bumped version by %d, want 1", got-before)
	}
	if v := s.Get("visits"); !v.Equal(types.Int(1)) {
		t.Errorf("visits = %s after commit", v)
	}
}

func TestCommitEmptyBatchIsNoop(t *testing.T) {
	s := NewStore()
	before := s.Version()
	s.Commit(nil)
	if s.Version() != before {
		t.Error("empty commit bumped the version")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	s.Set("mood", types.String("cold"))

	snap := s.Snapshot()
	s.Set("mood", types.String("warm"))

	if v := snap.Get("mood"); !v.Equal(types.String("cold")) {
		t.Errorf("snapshot observed later write: %s", v)
	}
}

func TestSnapshotWithOverlay(t *testing.T) {
	s := NewStore()
	s.Set("visits", types.Int(1))
	snap := s.Snapshot()

	view := snap.With([]types.MutationRecord{
		{Key: "visits", Old: types.Int(1), New: types.Int(2)},
		{Key: "mood", New: types.Absent()},
	})

	if v := view.Get("visits"); !v.Equal(types.Int(2)) {
		t.Errorf("overlay visits = %s, want 2", v)
	}
	if v := snap.Get("visits"); !v.Equal(types.Int(1)) {
		t.Errorf("With modified the receiver: %s", v)
	}
}

func TestFingerprintDependsOnlyOnListedKeys(t *testing.T) {
	a := FromMap(map[string]types.Value{
		"reputation": types.Int(60),
		"unrelated":  types.String("noise"),
	})
	b := FromMap(map[string]types.Value{
		"reputation": types.Int(60),
		"unrelated":  types.String("different noise"),
	})

	keys := []string{"reputation"}
	if a.Snapshot().Fingerprint(keys) != b.Snapshot().Fingerprint(keys) {
		t.Error("fingerprint changed with an unlisted key")
	}

	b.Set("reputation", types.Int(10))
	if a.Snapshot().Fingerprint(keys) == b.Snapshot().Fingerprint(keys) {
		t.Error("fingerprint ignored a listed key change")
	}
}

func TestFingerprintDistinguishesKindAndAbsence(t *testing.T) {
	keys := []string{"flag"}
	asInt := FromMap(map[string]types.Value{"flag": types.Int(1)}).Snapshot()
	asString := FromMap(map[string]types.Value{"flag": types.String("1")}).Snapshot()
	unset := NewStore().Snapshot()

	if asInt.Fingerprint(keys) == asString.Fingerprint(keys) {
		t.Error("int 1 and string \"1\" collided")
	}
	if asInt.Fingerprint(keys) == unset.Fingerprint(keys) {
		t.Error("set and absent collided")
	}
}
