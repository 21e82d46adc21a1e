// Package transcription orchestrates the batch path: fetch the audio with
// bounded retry, transcribe it with the selected engine and persist the
// result.
package transcription

import (
	"context"
	"fmt"
	"time"

	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/observability/metrics"
	"audio-transcription-service/internal/retry"
	"audio-transcription-service/internal/store"
	"audio-transcription-service/internal/stt"

	"github.com/rs/zerolog"
)

// Fetcher resolves an audio reference into bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ErrUnknownProvider indicates a provider tag outside the closed set.
type ErrUnknownProvider struct {
	Provider models.Provider
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown transcription provider %q", e.Provider)
}

// Service is the batch transcription service.
type Service struct {
	fetcher Fetcher
	mock    stt.Engine
	azure   stt.Engine // nil when cloud credentials are absent
	results store.ResultStore
	retry   retry.Options
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New creates the batch service. azure may be nil; requests selecting it
// then fail with the engine's configuration error.
func New(fetcher Fetcher, mockEngine, azureEngine stt.Engine, results store.ResultStore, retryOpts retry.Options) *Service {
	return &Service{
		fetcher: fetcher,
		mock:    mockEngine,
		azure:   azureEngine,
		results: results,
		retry:   retryOpts,
		metrics: metrics.DefaultMetrics,
		log:     logging.WithComponent("transcription"),
	}
}

// engineFor selects the engine for a provider tag. The provider set is
// closed: mock and azure are the only arms.
func (s *Service) engineFor(provider models.Provider) (stt.Engine, error) {
	switch provider {
	case models.ProviderMock:
		return s.mock, nil
	case models.ProviderAzure:
		if s.azure == nil {
			return nil, fmt.Errorf("azure transcription unavailable: %w", stt.ErrMissingCredentials)
		}
		return s.azure, nil
	default:
		return nil, &ErrUnknownProvider{Provider: provider}
	}
}

// Process fetches the referenced audio (bounded retry with exponential
// backoff), transcribes it with the selected provider and persists the
// result. Any failure aborts the operation; nothing partial is persisted.
func (s *Service) Process(ctx context.Context, audioURL string, provider models.Provider) (*models.Transcription, error) {
	start := time.Now()
	log := s.log.With().Str("audioUrl", audioURL).Str("provider", string(provider)).Logger()
	log.Info().Msg("Processing transcription")

	engine, err := s.engineFor(provider)
	if err != nil {
		s.metrics.RecordBatch(string(provider), err, time.Since(start).Seconds())
		return nil, err
	}

	opts := s.retry
	opts.OnRetry = func(attempt int, err error) {
		s.metrics.RecordFetchRetry()
		log.Warn().Err(err).Int("attempt", attempt).Msg("Audio fetch attempt failed, retrying")
	}

	audio, err := retry.Do(ctx, func() ([]byte, error) {
		return s.fetcher.Fetch(ctx, audioURL)
	}, opts)
	if err != nil {
		log.Error().Err(err).Msg("Audio fetch failed")
		s.metrics.RecordBatch(string(provider), err, time.Since(start).Seconds())
		return nil, err
	}

	result, err := engine.Transcribe(ctx, audio)
	if err != nil {
		log.Error().Err(err).Msg("Transcription failed")
		s.metrics.RecordBatch(string(provider), err, time.Since(start).Seconds())
		return nil, err
	}
	if result.Language != "" {
		log.Info().Str("detectedLanguage", result.Language).Msg("Language detected")
	}

	saved, err := s.results.Save(ctx, &models.Transcription{
		AudioURL:      audioURL,
		Transcription: result.Text,
		Source:        provider,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to save transcription")
		s.metrics.RecordBatch(string(provider), err, time.Since(start).Seconds())
		return nil, err
	}

	s.metrics.RecordBatch(string(provider), nil, time.Since(start).Seconds())
	log.Info().Str("id", saved.ID).Msg("Transcription processed successfully")
	return saved, nil
}

// List returns a page of transcriptions from the trailing 30-day window,
// newest first, optionally filtered by provider. Page and limit are
// clamped by the store.
func (s *Service) List(ctx context.Context, page, limit int, provider models.Provider) ([]models.Transcription, store.Pagination, error) {
	s.log.Info().
		Int("page", page).
		Int("limit", limit).
		Str("provider", string(provider)).
		Msg("Fetching transcriptions")

	return s.results.List(ctx, store.ListOptions{
		Page:       page,
		Limit:      limit,
		Source:     provider,
		WindowDays: store.DefaultWindowDays,
	})
}
