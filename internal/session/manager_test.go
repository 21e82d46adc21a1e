package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/store"
	"audio-transcription-service/internal/stt/mock"
)

func newTestManager() (*Manager, *store.MemorySessionStore) {
	st := store.NewMemorySessionStore()
	return NewManager(st, mock.New(), nil), st
}

// failingStore wraps a SessionStore and fails selected operations.
type failingStore struct {
	store.SessionStore
	failCreate bool
	failAppend bool
	failFinal  bool
}

var errStore = errors.New("store unavailable")

func (f *failingStore) Create(ctx context.Context, log *models.SessionLog) error {
	if f.failCreate {
		return errStore
	}
	return f.SessionStore.Create(ctx, log)
}

func (f *failingStore) AppendPartial(ctx context.Context, sessionID, partial string) error {
	if f.failAppend {
		return errStore
	}
	return f.SessionStore.AppendPartial(ctx, sessionID, partial)
}

func (f *failingStore) SetFinal(ctx context.Context, sessionID, final string, endedAt time.Time, durationMs int64) error {
	if f.failFinal {
		return errStore
	}
	return f.SessionStore.SetFinal(ctx, sessionID, final, endedAt, durationMs)
}

func TestStart_CreatesActiveSession(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, err := m.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a session identifier")
	}

	rec, err := m.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ChunksReceived != 0 || len(rec.Partials) != 0 || len(rec.Events) != 0 {
		t.Errorf("expected zeroed record, got %+v", rec)
	}
	if rec.Finalized() {
		t.Error("fresh session must not be finalized")
	}

	state, err := m.StateOf(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateActive {
		t.Errorf("expected ACTIVE, got %s", state)
	}
}

func TestStart_PersistenceFailure(t *testing.T) {
	st := &failingStore{SessionStore: store.NewMemorySessionStore(), failCreate: true}
	m := NewManager(st, mock.New(), nil)

	if _, err := m.Start(context.Background()); !errors.Is(err, errStore) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestProcessChunk_CounterMatchesPartials(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Start(ctx)

	for i := 0; i < 5; i++ {
		ev, err := m.ProcessChunk(ctx, id, []byte("audio"))
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		if ev.ChunkIndex != i {
			t.Errorf("chunk %d: derived index %d", i, ev.ChunkIndex)
		}
		if ev.LogErr != nil {
			t.Errorf("chunk %d: unexpected log error %v", i, ev.LogErr)
		}

		rec, _ := m.Get(ctx, id)
		if rec.ChunksReceived != len(rec.Partials) {
			t.Errorf("chunk %d: counter %d != partials %d", i, rec.ChunksReceived, len(rec.Partials))
		}
	}

	rec, _ := m.Get(ctx, id)
	if rec.Partials[0] != "Hello" || rec.Partials[1] != "Hello world" {
		t.Errorf("expected progressive mock partials, got %v", rec.Partials[:2])
	}
}

func TestProcessChunk_EmptyPayloadRejected(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Start(ctx)
	_, _ = m.ProcessChunk(ctx, id, []byte("audio"))

	for _, payload := range [][]byte{nil, {}} {
		if _, err := m.ProcessChunk(ctx, id, payload); !errors.Is(err, ErrInvalidChunk) {
			t.Errorf("payload %v: expected ErrInvalidChunk, got %v", payload, err)
		}
	}

	// Invalid chunks must not mutate state.
	rec, _ := m.Get(ctx, id)
	if rec.ChunksReceived != 1 {
		t.Errorf("expected counter unchanged at 1, got %d", rec.ChunksReceived)
	}
	if rec.ChunksReceived != len(rec.Partials) {
		t.Errorf("counter %d != partials %d", rec.ChunksReceived, len(rec.Partials))
	}
}

func TestProcessChunk_UnknownSession(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.ProcessChunk(context.Background(), "missing", []byte("audio"))
	if !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestProcessChunk_LogFailureDoesNotBreakStream(t *testing.T) {
	st := &failingStore{SessionStore: store.NewMemorySessionStore()}
	m := NewManager(st, mock.New(), nil)
	ctx := context.Background()

	id, _ := m.Start(ctx)

	st.failAppend = true
	ev, err := m.ProcessChunk(ctx, id, []byte("audio"))
	if err != nil {
		t.Fatalf("log failure must not abort chunk processing: %v", err)
	}
	if ev.Partial == "" {
		t.Error("expected a partial despite the log failure")
	}
	if !errors.Is(ev.LogErr, errStore) {
		t.Errorf("expected inspectable log error, got %v", ev.LogErr)
	}

	// The failed append left the counter untouched, so the next chunk
	// derives the same index from the persisted record.
	st.failAppend = false
	ev2, err := m.ProcessChunk(ctx, id, []byte("audio"))
	if err != nil {
		t.Fatal(err)
	}
	if ev2.ChunkIndex != ev.ChunkIndex {
		t.Errorf("expected index re-derived as %d, got %d", ev.ChunkIndex, ev2.ChunkIndex)
	}
}

func TestFinalize_SetsRecordAndState(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Start(ctx)
	_, _ = m.ProcessChunk(ctx, id, []byte("audio"))

	ev, err := m.Finalize(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if ev.AlreadyFinalized {
		t.Error("first finalize must not report AlreadyFinalized")
	}
	if ev.Final == "" {
		t.Error("expected a final transcript")
	}
	if ev.DurationMs < 0 {
		t.Errorf("duration must be >= 0, got %d", ev.DurationMs)
	}

	rec, _ := m.Get(ctx, id)
	if !rec.Finalized() {
		t.Fatal("record must carry endedAt after finalize")
	}
	if got := rec.EndedAt.Sub(rec.StartedAt).Milliseconds(); got != rec.DurationMs {
		t.Errorf("durationMs %d != endedAt-startedAt %d", rec.DurationMs, got)
	}
	if want := len(rec.Partials) + 1; len(rec.Events) != want {
		t.Errorf("expected %d events, got %d", want, len(rec.Events))
	}

	state, _ := m.StateOf(ctx, id)
	if state != StateFinalized {
		t.Errorf("expected FINALIZED, got %s", state)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Start(ctx)
	first, err := m.Finalize(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	second, err := m.Finalize(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !second.AlreadyFinalized {
		t.Error("second finalize must be a no-op")
	}
	if second.Final != first.Final || second.DurationMs != first.DurationMs {
		t.Errorf("second finalize changed the result: %+v vs %+v", second, first)
	}

	rec, _ := m.Get(ctx, id)
	if !rec.EndedAt.Equal(first.Timestamp) {
		t.Errorf("endedAt changed from %v to %v", first.Timestamp, rec.EndedAt)
	}
}

func TestDisconnect_AutoFinalizesOnce(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Start(ctx)
	_, _ = m.ProcessChunk(ctx, id, []byte("audio"))

	if !m.Disconnect(ctx, id) {
		t.Error("disconnect before explicit end must finalize the session")
	}
	if m.Disconnect(ctx, id) {
		t.Error("second disconnect must not finalize again")
	}
}

func TestDisconnect_AfterExplicitEndIsNoop(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Start(ctx)
	if _, err := m.Finalize(ctx, id); err != nil {
		t.Fatal(err)
	}

	if m.Disconnect(ctx, id) {
		t.Error("disconnect after explicit end must not finalize again")
	}
}

func TestProcessChunk_RejectedAfterFinalize(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Start(ctx)
	_, _ = m.Finalize(ctx, id)

	_, err := m.ProcessChunk(ctx, id, []byte("audio"))
	if err == nil {
		t.Fatal("expected chunk after finalize to be rejected")
	}
}

func TestGet_UnknownSession(t *testing.T) {
	m, _ := newTestManager()

	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
