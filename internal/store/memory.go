package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"audio-transcription-service/internal/models"

	"github.com/google/uuid"
)

// MemorySessionStore is a mutex-guarded in-memory SessionStore. Used when
// no MongoDB URI is configured and as a fake in tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionLog
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.SessionLog)}
}

func (s *MemorySessionStore) Create(_ context.Context, log *models.SessionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[log.SessionID]; exists {
		return fmt.Errorf("session %s already exists", log.SessionID)
	}

	stored := *log
	stored.Events = append([]string(nil), log.Events...)
	stored.Partials = append([]string(nil), log.Partials...)
	s.sessions[log.SessionID] = &stored
	return nil
}

func (s *MemorySessionStore) AppendPartial(_ context.Context, sessionID, partial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	rec.ChunksReceived++
	rec.Events = append(rec.Events, "partial:"+partial)
	rec.Partials = append(rec.Partials, partial)
	return nil
}

func (s *MemorySessionStore) SetFinal(_ context.Context, sessionID, final string, endedAt time.Time, durationMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	rec.Final = final
	rec.EndedAt = &endedAt
	rec.DurationMs = durationMs
	rec.Events = append(rec.Events, "final:"+final)
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*models.SessionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := *rec
	copied.Events = append([]string(nil), rec.Events...)
	copied.Partials = append([]string(nil), rec.Partials...)
	return &copied, nil
}

// MemoryResultStore is a mutex-guarded in-memory ResultStore.
type MemoryResultStore struct {
	mu      sync.RWMutex
	results []models.Transcription
}

// NewMemoryResultStore creates an empty in-memory result store.
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{}
}

func (s *MemoryResultStore) Save(_ context.Context, t *models.Transcription) (*models.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *t
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	s.results = append(s.results, saved)

	out := saved
	return &out, nil
}

func (s *MemoryResultStore) List(_ context.Context, opts ListOptions) ([]models.Transcription, Pagination, error) {
	opts = opts.Normalize()
	threshold := time.Now().UTC().AddDate(0, 0, -opts.WindowDays)

	s.mu.RLock()
	var matched []models.Transcription
	for _, r := range s.results {
		if r.CreatedAt.Before(threshold) {
			continue
		}
		if opts.Source != "" && r.Source != opts.Source {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (opts.Page - 1) * opts.Limit
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return matched[start:end], paginationFor(opts, total), nil
}
