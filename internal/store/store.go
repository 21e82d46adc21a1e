// Package store defines the durable stores for session logs and batch
// transcription results, with MongoDB and in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"

	"audio-transcription-service/internal/models"
)

// ErrSessionNotFound indicates an unknown session identifier.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists streaming session records.
//
// AppendPartial must atomically increment the chunk counter and append
// both the partial text and its event entry, so that retried writes never
// lose updates and chunksReceived == len(partials) holds after every call.
type SessionStore interface {
	Create(ctx context.Context, log *models.SessionLog) error
	AppendPartial(ctx context.Context, sessionID, partial string) error
	SetFinal(ctx context.Context, sessionID, final string, endedAt time.Time, durationMs int64) error
	Get(ctx context.Context, sessionID string) (*models.SessionLog, error)
}

// ResultStore persists completed batch transcriptions.
type ResultStore interface {
	Save(ctx context.Context, t *models.Transcription) (*models.Transcription, error)
	List(ctx context.Context, opts ListOptions) ([]models.Transcription, Pagination, error)
}

// Default listing bounds.
const (
	MaxPageLimit      = 100
	DefaultWindowDays = 30
)

// ListOptions selects a page of transcription results.
type ListOptions struct {
	Page  int
	Limit int

	// Source filters by provider tag when set.
	Source models.Provider

	// WindowDays restricts results to the trailing window. Defaults to
	// DefaultWindowDays when zero.
	WindowDays int
}

// Normalize clamps the paging options: page >= 1, 1 <= limit <= MaxPageLimit.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 1
	}
	if o.Limit > MaxPageLimit {
		o.Limit = MaxPageLimit
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	return o
}

// Pagination describes the page returned by a List call.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func paginationFor(opts ListOptions, total int) Pagination {
	totalPages := (total + opts.Limit - 1) / opts.Limit
	return Pagination{
		Page:       opts.Page,
		Limit:      opts.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
