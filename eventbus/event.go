package eventbus

import (
	"encoding/json"
	"time"
)

// Kind identifies a transition of a retry session.
type Kind string

const (
	KindRetry        Kind = "retry"
	KindAbort        Kind = "abort"
	KindSuccess      Kind = "success"
	KindInvalidState Kind = "invalid_state"
)

var _ Message = Event{}

// Event describes a single retry session transition.
type Event struct {
	Session string        `json:"session"`
	Name    string        `json:"name,omitempty"`
	Kind    Kind          `json:"kind"`
	Attempt int           `json:"attempt"`
	Delay   time.Duration `json:"delay,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
	At      time.Time     `json:"at"`
}

// Serialize encodes the event as JSON.
func (e Event) Serialize() ([]byte, error) {
	return json.Marshal(e)
}
