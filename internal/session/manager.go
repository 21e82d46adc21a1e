package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"audio-transcription-service/internal/events"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/observability/metrics"
	"audio-transcription-service/internal/store"
	"audio-transcription-service/internal/stt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PartialEvent is emitted to the caller after each processed chunk.
//
// LogErr carries a session-log write failure. Such failures never abort
// live delivery; callers decide whether to log or surface them.
type PartialEvent struct {
	SessionID  string
	Partial    string
	ChunkIndex int
	Timestamp  time.Time
	LogErr     error
}

// FinalEvent is emitted to the caller when a session is finalized.
// AlreadyFinalized marks the idempotent second finalize, which leaves the
// record untouched and echoes the persisted result.
type FinalEvent struct {
	SessionID        string
	Final            string
	DurationMs       int64
	Timestamp        time.Time
	AlreadyFinalized bool
	LogErr           error
}

// Manager owns the per-connection session state machines. Sessions are
// kept in a concurrent-safe registry keyed by session identifier; each
// session is only ever mutated by its owning connection, so per-session
// operations need no cross-session coordination.
type Manager struct {
	store     store.SessionStore
	engine    stt.Streamer
	publisher *events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger

	mu     sync.RWMutex
	active map[string]*lifecycle
}

// NewManager creates a session manager.
func NewManager(st store.SessionStore, engine stt.Streamer, publisher *events.Publisher) *Manager {
	return &Manager{
		store:     st,
		engine:    engine,
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("session"),
	}
}

func (m *Manager) lookup(sessionID string) *lifecycle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// Start allocates a new session, persists its zeroed record and activates
// it. When the persistence write fails no session is registered and the
// error is returned to the caller.
func (m *Manager) Start(ctx context.Context) (string, error) {
	sessionID := uuid.NewString()
	lc := newLifecycle()

	rec := &models.SessionLog{
		SessionID: sessionID,
		Events:    []string{},
		Partials:  []string{},
		StartedAt: time.Now().UTC(),
	}

	if err := m.store.Create(ctx, rec); err != nil {
		m.log.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to create session")
		return "", fmt.Errorf("creating session: %w", err)
	}

	lc.activate()
	m.mu.Lock()
	if m.active == nil {
		m.active = make(map[string]*lifecycle)
	}
	m.active[sessionID] = lc
	m.mu.Unlock()

	m.metrics.RecordSessionStart()
	m.log.Info().Str("sessionId", sessionID).Msg("Session started")
	return sessionID, nil
}

// ProcessChunk derives the partial transcript for one inbound audio chunk
// and appends it to the session record. The chunk index is derived from
// the persisted counter, so the index and the record can never diverge.
//
// An empty payload yields ErrInvalidChunk with no state mutation. A failed
// record append is logged and reported through PartialEvent.LogErr without
// leaving the session active state: individual bad writes never break the
// live stream.
func (m *Manager) ProcessChunk(ctx context.Context, sessionID string, chunk []byte) (PartialEvent, error) {
	lc := m.lookup(sessionID)
	if lc == nil {
		m.metrics.RecordChunk(false)
		return PartialEvent{}, store.ErrSessionNotFound
	}

	if len(chunk) == 0 {
		m.metrics.RecordChunk(false)
		return PartialEvent{}, ErrInvalidChunk
	}

	if err := lc.acceptChunk(); err != nil {
		m.metrics.RecordChunk(false)
		return PartialEvent{}, err
	}

	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		m.metrics.RecordChunk(false)
		return PartialEvent{}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	chunkIndex := rec.ChunksReceived

	partial, err := m.engine.Partial(ctx, chunkIndex, chunk)
	if err != nil {
		m.metrics.RecordChunk(false)
		return PartialEvent{}, fmt.Errorf("transcribing chunk %d: %w", chunkIndex, err)
	}

	logErr := m.store.AppendPartial(ctx, sessionID, partial)
	if logErr != nil {
		m.log.Error().Err(logErr).
			Str("sessionId", sessionID).
			Int("chunkIndex", chunkIndex).
			Msg("Failed to update session log with partial")
	}

	ev := PartialEvent{
		SessionID:  sessionID,
		Partial:    partial,
		ChunkIndex: chunkIndex,
		Timestamp:  time.Now().UTC(),
		LogErr:     logErr,
	}

	m.metrics.RecordChunk(true)
	m.publishPartial(ev)
	return ev, nil
}

// Finalize produces the final transcript, writes it to the record and
// transitions the session to FINALIZED. Invoked twice (explicit end then
// disconnect), the second call detects the persisted endedAt and returns
// the existing result without writing anything.
func (m *Manager) Finalize(ctx context.Context, sessionID string) (FinalEvent, error) {
	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return FinalEvent{}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	if rec.Finalized() {
		return FinalEvent{
			SessionID:        sessionID,
			Final:            rec.Final,
			DurationMs:       rec.DurationMs,
			Timestamp:        *rec.EndedAt,
			AlreadyFinalized: true,
		}, nil
	}

	final, err := m.engine.Final(ctx)
	if err != nil {
		return FinalEvent{}, fmt.Errorf("generating final transcription: %w", err)
	}

	endedAt := time.Now().UTC()
	durationMs := endedAt.Sub(rec.StartedAt).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}

	logErr := m.store.SetFinal(ctx, sessionID, final, endedAt, durationMs)
	if logErr != nil {
		m.log.Error().Err(logErr).
			Str("sessionId", sessionID).
			Msg("Failed to update session log with final")
	}

	m.mu.Lock()
	lc := m.active[sessionID]
	delete(m.active, sessionID)
	m.mu.Unlock()
	if lc != nil {
		lc.finalize()
	}

	ev := FinalEvent{
		SessionID:  sessionID,
		Final:      final,
		DurationMs: durationMs,
		Timestamp:  endedAt,
		LogErr:     logErr,
	}

	m.metrics.RecordSessionFinalized(float64(durationMs) / 1000)
	m.metrics.RecordFinalTranscript()
	m.publishFinal(ev)

	m.log.Info().
		Str("sessionId", sessionID).
		Int64("durationMs", durationMs).
		Msg("Session finalized")
	return ev, nil
}

// Disconnect handles a connection-loss event: the session is finalized if
// it has not already ended. Returns true when this call performed the
// finalization.
func (m *Manager) Disconnect(ctx context.Context, sessionID string) bool {
	ev, err := m.Finalize(ctx, sessionID)
	if err != nil {
		m.log.Error().Err(err).Str("sessionId", sessionID).Msg("Error handling disconnect")
		return false
	}
	if ev.AlreadyFinalized {
		return false
	}
	m.log.Info().Str("sessionId", sessionID).Msg("Auto-finalized session on disconnect")
	return true
}

// Get returns the current session record. Available in any state.
func (m *Manager) Get(ctx context.Context, sessionID string) (*models.SessionLog, error) {
	return m.store.Get(ctx, sessionID)
}

// StateOf reports the in-registry lifecycle state of a session. Sessions
// that are unknown or already finalized report StateFinalized only if the
// record says so.
func (m *Manager) StateOf(ctx context.Context, sessionID string) (State, error) {
	if lc := m.lookup(sessionID); lc != nil {
		return lc.current(), nil
	}
	rec, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return StateCreated, err
	}
	if rec.Finalized() {
		return StateFinalized, nil
	}
	return StateActive, nil
}

func (m *Manager) publishPartial(ev PartialEvent) {
	if m.publisher == nil {
		return
	}
	payload := models.TranscriptPartial{
		EventType:  "session.transcript.partial",
		SessionID:  ev.SessionID,
		ChunkIndex: ev.ChunkIndex,
		Text:       ev.Partial,
		Timestamp:  ev.Timestamp.UnixMilli(),
	}
	if err := m.publisher.PublishPartial(context.Background(), ev.SessionID, payload); err != nil {
		m.log.Error().Err(err).Str("sessionId", ev.SessionID).Msg("Failed to publish partial event")
	}
}

func (m *Manager) publishFinal(ev FinalEvent) {
	if m.publisher == nil {
		return
	}
	payload := models.TranscriptFinal{
		EventType:  "session.transcript.final",
		SessionID:  ev.SessionID,
		Text:       ev.Final,
		DurationMs: ev.DurationMs,
		Timestamp:  ev.Timestamp.UnixMilli(),
	}
	if err := m.publisher.PublishFinal(context.Background(), ev.SessionID, payload); err != nil {
		m.log.Error().Err(err).Str("sessionId", ev.SessionID).Msg("Failed to publish final event")
	}
}
