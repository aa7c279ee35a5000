package engine

import (
	"github.com/google/uuid"
	"github.com/nathoo/dialoguecore/engine/graph"
	"github.com/nathoo/dialoguecore/engine/resolve"
	"github.com/nathoo/dialoguecore/engine/state"
)

// Session is one conversation: a world-state store, a cursor into the
// graph, and a log of the opaque input signals seen so far. Sessions may
// run concurrently against a shared engine; each owns its own store.
type Session struct {
	ID        string
	Engine    *Engine
	Store     *state.Store
	Current   string // current node id
	Turns     int
	SignalLog []string
}

// NewSession starts a session at the graph's entry node with empty state.
func (e *Engine) NewSession() *Session {
	return &Session{
		ID:      uuid.NewString(),
		Engine:  e,
		Store:   state.NewStore(),
		Current: e.Graph.Entry(),
	}
}

// RestoreSession rebuilds a session from persisted parts (see the save
// package). The node id must exist in the graph.
func (e *Engine) RestoreSession(id, current string, store *state.Store) (*Session, error) {
	if _, err := e.Graph.Node(current); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id, Engine: e, Store: store, Current: current}, nil
}

// Step advances the conversation one node. The signal is recorded for
// audit but never interpreted — routing on player input is the caller's
// concern, the engine only consults world state.
func (s *Session) Step(signal string) (resolve.Resolution, error) {
	s.SignalLog = append(s.SignalLog, signal)

	res, err := s.Engine.Resolve(s.Store, s.Current)
	if err != nil {
		return res, err
	}

	s.Current = res.Next
	s.Turns++
	return res, nil
}

// Goto moves the cursor to an arbitrary node — the hook callers use to
// route input signals into the graph. Unknown nodes are rejected.
func (s *Session) Goto(nodeID string) error {
	if _, err := s.Engine.Graph.Node(nodeID); err != nil {
		return err
	}
	s.Current = nodeID
	return nil
}

// Graph returns the shared read-only graph, for callers inspecting
// structure mid-conversation.
func (s *Session) Graph() *graph.Graph { return s.Engine.Graph }
