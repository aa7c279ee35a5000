// Package save implements JSON serialization and deserialization of
// dialogue sessions. Fact values carry an explicit kind tag on the wire so
// ints and floats survive the round trip intact.
package save

import (
	"encoding/json"

	"github.com/nathoo/dialoguecore/engine"
	"github.com/nathoo/dialoguecore/engine/state"
	"github.com/nathoo/dialoguecore/types"
)

// SaveData is the JSON-serializable session format.
type SaveData struct {
	Version   string                 `json:"version"`
	Dialogue  string                 `json:"dialogue"`
	SessionID string                 `json:"session_id"`
	Current   string                 `json:"current"`
	Turns     int                    `json:"turns"`
	Facts     map[string]types.Value `json:"facts"`
	SignalLog []string               `json:"signal_log"`
}

// Save serializes a session to JSON bytes.
func Save(sess *engine.Session) ([]byte, error) {
	def := sess.Graph().Def()
	data := SaveData{
		Version:   def.Version,
		Dialogue:  def.Title,
		SessionID: sess.ID,
		Current:   sess.Current,
		Turns:     sess.Turns,
		Facts:     sess.Store.Snapshot().Map(),
		SignalLog: sess.SignalLog,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Maps and slices are never nil after load.
	if sd.Facts == nil {
		sd.Facts = map[string]types.Value{}
	}
	if sd.SignalLog == nil {
		sd.SignalLog = []string{}
	}
	return &sd, nil
}

// Apply restores loaded data onto a session. The saved node must exist in
// the session's graph; a save taken against a different graph revision can
// legitimately fail here.
func Apply(sess *engine.Session, sd *SaveData) error {
	if _, err := sess.Graph().Node(sd.Current); err != nil {
		return err
	}
	if sd.SessionID != "" {
		sess.ID = sd.SessionID
	}
	sess.Store = state.FromMap(sd.Facts)
	sess.Current = sd.Current
	sess.Turns = sd.Turns
	sess.SignalLog = sd.SignalLog
	return nil
}
