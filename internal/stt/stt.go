// Package stt defines the capability boundary for transcription engines.
package stt

import (
	"context"
	"errors"
	"fmt"
)

// Result is the outcome of a successful recognition.
type Result struct {
	Text string

	// Language is the auto-detected language tag. Empty when the engine
	// does not perform detection (the mock engine).
	Language string
}

// Engine converts a complete audio buffer into text.
// Implementations: the deterministic mock and the Azure cloud recognizer.
type Engine interface {
	Transcribe(ctx context.Context, audio []byte) (Result, error)
}

// Streamer produces incremental results for a streaming session.
// Partial derives the partial transcript for one chunk; Final produces
// the terminal transcript for the session.
type Streamer interface {
	Partial(ctx context.Context, chunkIndex int, chunk []byte) (string, error)
	Final(ctx context.Context) (string, error)
}

// ErrMissingCredentials indicates a cloud engine is missing required
// credentials. Fatal to the operation, not the process.
var ErrMissingCredentials = errors.New("speech credentials missing")

// ErrNoSpeech indicates the recognizer found no recognizable speech.
var ErrNoSpeech = errors.New("no speech could be recognized")

// CanceledError indicates the provider cancelled the recognition.
type CanceledError struct {
	Reason  string
	Details string
}

func (e *CanceledError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("speech recognition canceled: %s. %s", e.Reason, e.Details)
	}
	return fmt.Sprintf("speech recognition canceled: %s", e.Reason)
}

// RecognitionError indicates a non-success recognition outcome that is
// neither a no-speech result nor a cancellation.
type RecognitionError struct {
	Reason string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition failed with reason: %s", e.Reason)
}
