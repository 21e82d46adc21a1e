// Package mock provides a deterministic transcription engine for offline
// and test use. It always succeeds and performs no language detection.
package mock

import (
	"context"

	"audio-transcription-service/internal/stt"
)

// Progressive partial transcripts keyed by chunk index. Indices past the
// end repeat the last entry.
var partials = []string{
	"Hello",
	"Hello world",
	"Hello world, this",
	"Hello world, this is",
	"Hello world, this is a",
	"Hello world, this is a test",
	"Hello world, this is a test of",
	"Hello world, this is a test of real-time",
	"Hello world, this is a test of real-time transcription",
}

const (
	finalText = "Hello world, this is a test of real-time transcription."
	batchText = "transcribed text"
)

// Engine implements stt.Engine and stt.Streamer with fixed fixtures.
type Engine struct{}

// New creates a mock engine.
func New() *Engine {
	return &Engine{}
}

// Transcribe returns the fixed batch transcript.
func (e *Engine) Transcribe(_ context.Context, _ []byte) (stt.Result, error) {
	return stt.Result{Text: batchText}, nil
}

// Partial returns the progressive partial transcript for chunkIndex.
func (e *Engine) Partial(_ context.Context, chunkIndex int, _ []byte) (string, error) {
	if chunkIndex < 0 {
		chunkIndex = 0
	}
	if chunkIndex >= len(partials) {
		chunkIndex = len(partials) - 1
	}
	return partials[chunkIndex], nil
}

// Final returns the fixed final transcript.
func (e *Engine) Final(_ context.Context) (string, error) {
	return finalText, nil
}
