package idgen

import "sync/atomic"

// Generator produces retry session identifiers.
type Generator func() string

var _generator atomic.Pointer[Generator]

func init() {
	Use(ULID)
}

// NewSessionID returns an identifier from the current generator (ULID by default).
func NewSessionID() string {
	return (*_generator.Load())()
}

// Use replaces the generator returned ids come from. A nil generator restores ULID.
func Use(fn Generator) {
	if fn == nil {
		fn = ULID
	}
	_generator.Store(&fn)
}
