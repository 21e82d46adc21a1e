// Package fetch resolves an audio reference (local path or remote URL)
// into raw bytes. It performs no retry of its own; callers that need
// resilience wrap calls with the retry package.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"audio-transcription-service/internal/observability/logging"

	"github.com/rs/zerolog"
)

// ErrNotFound indicates the audio reference did not resolve to anything.
var ErrNotFound = errors.New("audio reference not found")

// IOError wraps a transfer or read failure for an audio reference.
type IOError struct {
	Ref string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("fetching audio %q: %v", e.Ref, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Fetcher resolves audio references.
type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

// New creates a Fetcher with a default HTTP client.
func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    logging.WithComponent("fetch"),
	}
}

// NewWithClient creates a Fetcher using the given HTTP client.
func NewWithClient(client *http.Client) *Fetcher {
	f := New()
	f.client = client
	return f
}

// Fetch resolves ref into a byte buffer. References starting with http://
// or https:// are fetched over HTTP; anything else is read from the local
// filesystem. Returns ErrNotFound when the reference does not resolve and
// an *IOError for transfer or read failures.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.fetchRemote(ctx, ref)
	}
	return f.fetchLocal(ref)
}

func (f *Fetcher) fetchLocal(path string) ([]byte, error) {
	f.log.Debug().Str("path", path).Msg("Reading audio from local file")

	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		return nil, &IOError{Ref: path, Err: err}
	}

	f.log.Info().Str("path", path).Int("bytes", len(buf)).Msg("Audio read successfully")
	return buf, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	f.log.Debug().Str("url", url).Msg("Downloading audio")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &IOError{Ref: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &IOError{Ref: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%q: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, &IOError{Ref: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &IOError{Ref: url, Err: err}
	}

	f.log.Info().Str("url", url).Int("bytes", len(buf)).Msg("Audio downloaded successfully")
	return buf, nil
}
