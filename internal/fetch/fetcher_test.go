package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetch_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}

	buf, err := New().Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if string(buf) != "RIFF....WAVE" {
		t.Errorf("unexpected content %q", buf)
	}
}

func TestFetch_LocalFileMissing(t *testing.T) {
	_, err := New().Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetch_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote audio"))
	}))
	defer srv.Close()

	buf, err := New().Fetch(context.Background(), srv.URL+"/audio.wav")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if string(buf) != "remote audio" {
		t.Errorf("unexpected content %q", buf)
	}
}

func TestFetch_RemoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), srv.URL+"/gone.wav")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetch_RemoteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), srv.URL+"/broken.wav")

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %v", err)
	}
}
