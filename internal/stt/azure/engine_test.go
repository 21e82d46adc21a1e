package azure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"audio-transcription-service/internal/stt"
)

func newTestEngine(t *testing.T, handler http.HandlerFunc) *Engine {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	e, err := New(Config{Key: "test-key", Region: "westeurope", Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNew_MissingCredentials(t *testing.T) {
	cases := []Config{
		{},
		{Key: "only-key"},
		{Region: "only-region"},
	}
	for _, cfg := range cases {
		if _, err := New(cfg); !errors.Is(err, stt.ErrMissingCredentials) {
			t.Errorf("config %+v: expected ErrMissingCredentials, got %v", cfg, err)
		}
	}
}

func TestNew_DefaultLanguages(t *testing.T) {
	e, err := New(Config{Key: "k", Region: "r"})
	if err != nil {
		t.Fatal(err)
	}
	if len(e.cfg.Languages) != 14 {
		t.Errorf("expected 14 default candidate languages, got %d", len(e.cfg.Languages))
	}
}

func TestTranscribe_Success(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "test-key" {
			t.Errorf("expected subscription key header, got %q", got)
		}
		if r.URL.Query().Get("candidateLocales") == "" {
			t.Error("expected candidate locales in query")
		}
		_, _ = w.Write([]byte(`{
			"RecognitionStatus": "Success",
			"DisplayText": "the stale smell of old beer lingers",
			"PrimaryLanguage": {"Language": "en-US"}
		}`))
	})

	res, err := e.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Text != "the stale smell of old beer lingers" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.Language != "en-US" {
		t.Errorf("expected detected language en-US, got %q", res.Language)
	}
}

func TestTranscribe_UnknownLanguageFallback(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"RecognitionStatus": "Success", "DisplayText": "hi"}`))
	})

	res, err := e.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Language != "unknown" {
		t.Errorf("expected language 'unknown', got %q", res.Language)
	}
}

func TestTranscribe_NoMatch(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"RecognitionStatus": "NoMatch"}`))
	})

	_, err := e.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, stt.ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
}

func TestTranscribe_Canceled(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"RecognitionStatus": "Canceled",
			"CancellationReason": "Error",
			"ErrorDetails": "quota exceeded"
		}`))
	})

	_, err := e.Transcribe(context.Background(), []byte("audio"))

	var canceled *stt.CanceledError
	if !errors.As(err, &canceled) {
		t.Fatalf("expected *stt.CanceledError, got %v", err)
	}
	if canceled.Reason != "Error" || canceled.Details != "quota exceeded" {
		t.Errorf("unexpected cancellation %+v", canceled)
	}
}

func TestTranscribe_OtherStatus(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"RecognitionStatus": "InitialSilenceTimeout"}`))
	})

	_, err := e.Transcribe(context.Background(), []byte("audio"))

	var recErr *stt.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected *stt.RecognitionError, got %v", err)
	}
	if recErr.Reason != "InitialSilenceTimeout" {
		t.Errorf("unexpected reason %q", recErr.Reason)
	}
}

func TestTranscribe_HTTPError(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := e.Transcribe(context.Background(), []byte("audio"))

	var recErr *stt.RecognitionError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected *stt.RecognitionError for non-200, got %v", err)
	}
}
