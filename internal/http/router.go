// Package http provides the request/response surface of the service.
package http

import (
	"net/http"

	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability"
	"audio-transcription-service/internal/service/transcription"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter constructs the HTTP router for the service. streamHandler is
// the WebSocket transport endpoint; nil disables it (tests).
func NewRouter(svc *transcription.Service, dev bool, streamHandler http.Handler) http.Handler {
	h := NewHandler(svc, dev)

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger)

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	if streamHandler != nil {
		r.Handle("/ws", streamHandler)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/transcription", h.createTranscription(models.ProviderMock))
		r.Post("/azure-transcription", h.createTranscription(models.ProviderAzure))
		r.Get("/transcriptions", h.listTranscriptions)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route "+r.Method+" "+r.URL.Path+" not found", nil)
	})

	return r
}
