// Package azure provides a transcription engine backed by the Azure Speech
// short-audio REST endpoint, with automatic source-language detection.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/stt"

	"github.com/rs/zerolog"
)

// DefaultLanguages is the candidate set used for language auto-detection
// when no explicit set is configured.
var DefaultLanguages = []string{
	"en-US", "en-GB", "es-ES", "es-MX", "fr-FR", "de-DE", "it-IT",
	"pt-BR", "ja-JP", "ko-KR", "zh-CN", "ar-SA", "hi-IN", "ru-RU",
}

// Config holds the Azure Speech credentials and recognition options.
type Config struct {
	Key    string
	Region string

	// Languages is the candidate set for auto-detection. Defaults to
	// DefaultLanguages when empty.
	Languages []string

	// Endpoint overrides the regional endpoint. Tests point this at a
	// local server.
	Endpoint string

	HTTPClient *http.Client
}

// Engine implements stt.Engine against Azure Speech.
type Engine struct {
	cfg      Config
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// New creates an Azure engine. Returns stt.ErrMissingCredentials when the
// key or region is absent.
func New(cfg Config) (*Engine, error) {
	if cfg.Key == "" || cfg.Region == "" {
		missing := 0
		if cfg.Key == "" {
			missing++
		}
		if cfg.Region == "" {
			missing++
		}
		return nil, fmt.Errorf("azure configuration incomplete: %d required credential(s) absent: %w",
			missing, stt.ErrMissingCredentials)
	}

	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultLanguages
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(
			"https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1",
			cfg.Region)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	return &Engine{
		cfg:      cfg,
		endpoint: endpoint,
		client:   client,
		log:      logging.WithComponent("stt.azure"),
	}, nil
}

// recognitionResponse is the subset of the Azure response the engine reads.
type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	PrimaryLanguage   struct {
		Language string `json:"Language"`
	} `json:"PrimaryLanguage"`
	CancellationReason string `json:"CancellationReason"`
	ErrorDetails       string `json:"ErrorDetails"`
}

// Transcribe sends the audio buffer to Azure and maps the recognition
// outcome: Success yields the text and detected language, NoMatch yields
// stt.ErrNoSpeech, Canceled yields *stt.CanceledError, and anything else
// yields *stt.RecognitionError.
func (e *Engine) Transcribe(ctx context.Context, audio []byte) (stt.Result, error) {
	e.log.Debug().Int("bytes", len(audio)).Msg("Transcribing audio buffer with Azure")

	query := url.Values{}
	query.Set("format", "detailed")
	query.Set("lidEnabled", "true")
	query.Set("candidateLocales", strings.Join(e.cfg.Languages, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.endpoint+"?"+query.Encode(), bytes.NewReader(audio))
	if err != nil {
		return stt.Result{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.cfg.Key)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return stt.Result{}, fmt.Errorf("azure speech request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return stt.Result{}, fmt.Errorf("azure speech response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return stt.Result{}, &stt.RecognitionError{
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var rec recognitionResponse
	if err := json.Unmarshal(body, &rec); err != nil {
		return stt.Result{}, fmt.Errorf("azure speech response: %w", err)
	}

	switch rec.RecognitionStatus {
	case "Success":
		lang := rec.PrimaryLanguage.Language
		if lang == "" {
			lang = "unknown"
		}
		e.log.Info().Str("detectedLanguage", lang).Msg("Audio transcribed successfully with Azure")
		return stt.Result{Text: rec.DisplayText, Language: lang}, nil

	case "NoMatch":
		return stt.Result{}, stt.ErrNoSpeech

	case "Canceled":
		return stt.Result{}, &stt.CanceledError{
			Reason:  rec.CancellationReason,
			Details: rec.ErrorDetails,
		}

	default:
		return stt.Result{}, &stt.RecognitionError{Reason: rec.RecognitionStatus}
	}
}
