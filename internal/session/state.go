// Package session owns the streaming session lifecycle: creation, chunk
// ingestion, finalization and disconnect handling.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a streaming session.
type State int

const (
	// StateCreated - session identifier allocated, record not yet persisted.
	StateCreated State = iota
	// StateActive - record persisted, chunks may be processed.
	StateActive
	// StateFinalized - final transcript emitted. Terminal, no transition leaves it.
	StateFinalized
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateActive:
		return "ACTIVE"
	case StateFinalized:
		return "FINALIZED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for rejected operations.
var (
	ErrInvalidChunk     = errors.New("invalid audio chunk: payload is empty")
	ErrSessionFinalized = errors.New("session is finalized")
)

// lifecycle guards the state of one session.
//
// State transitions:
//
//	CREATED → ACTIVE → FINALIZED
//
// Rules:
//   - ACTIVE: chunks may be processed (any number), finalize allowed (once).
//   - FINALIZED: terminal; chunk processing is rejected, finalize is a no-op.
type lifecycle struct {
	mu    sync.RWMutex
	state State
}

func newLifecycle() *lifecycle {
	return &lifecycle{state: StateCreated}
}

func (l *lifecycle) current() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// activate moves CREATED → ACTIVE after the record is persisted.
func (l *lifecycle) activate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateCreated {
		l.state = StateActive
	}
}

// acceptChunk validates that a chunk may be processed in the current state.
func (l *lifecycle) acceptChunk() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state == StateFinalized {
		return ErrSessionFinalized
	}
	return nil
}

// finalize moves to FINALIZED. Returns false when already finalized.
func (l *lifecycle) finalize() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFinalized {
		return false
	}
	l.state = StateFinalized
	return true
}
