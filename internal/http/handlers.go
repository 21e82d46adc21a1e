package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"audio-transcription-service/internal/fetch"
	"audio-transcription-service/internal/models"
	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/service/transcription"
	"audio-transcription-service/internal/store"
	"audio-transcription-service/internal/stt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// transcriptionRequest is the body of the batch transcription endpoints.
type transcriptionRequest struct {
	AudioURL string `json:"audioUrl" validate:"required"`
}

// Handler serves the request/response API.
type Handler struct {
	svc      *transcription.Service
	validate *validator.Validate
	dev      bool
	log      zerolog.Logger
}

// NewHandler creates the API handler. dev controls whether internal error
// detail is included in responses.
func NewHandler(svc *transcription.Service, dev bool) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		dev:      dev,
		log:      logging.WithComponent("http"),
	}
}

// createTranscription handles POST /api/transcription and
// POST /api/azure-transcription.
func (h *Handler) createTranscription(provider models.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transcriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Validation failed", []fieldError{
				{Path: "body", Message: "invalid JSON body"},
			})
			return
		}

		if details := h.validateRequest(req); details != nil {
			writeError(w, http.StatusUnprocessableEntity, "Validation failed", details)
			return
		}

		saved, err := h.svc.Process(r.Context(), req.AudioURL, provider)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}

		writeSuccess(w, http.StatusCreated, "Successfully transcribed data", map[string]string{
			"_id": saved.ID,
		})
	}
}

func (h *Handler) validateRequest(req transcriptionRequest) []fieldError {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return []fieldError{{Path: "body", Message: err.Error()}}
	}

	details := make([]fieldError, 0, len(invalid))
	for _, fe := range invalid {
		msg := "invalid value"
		if fe.Tag() == "required" {
			msg = "Audio URL is required"
		}
		details = append(details, fieldError{Path: "body." + fe.Field(), Message: msg})
	}
	return details
}

// listTranscriptions handles GET /api/transcriptions.
func (h *Handler) listTranscriptions(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	var provider models.Provider
	if src := models.Provider(r.URL.Query().Get("source")); src.Valid() {
		provider = src
	}

	items, pagination, err := h.svc.List(r.Context(), page, limit, provider)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []models.Transcription{}
	}

	writeJSON(w, http.StatusOK, struct {
		Success    bool                   `json:"success"`
		Message    string                 `json:"message"`
		Data       []models.Transcription `json:"data"`
		Pagination store.Pagination       `json:"pagination"`
	}{
		Success:    true,
		Message:    "Successfully fetched transcriptions",
		Data:       items,
		Pagination: pagination,
	})
}

// health handles GET /health.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}{
		Success:   true,
		Message:   "Service is healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps error kinds to response codes. Internal detail
// is only exposed in dev mode.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("Request failed")

	var details any
	if h.dev {
		details = err.Error()
	}

	var unknownProvider *transcription.ErrUnknownProvider
	switch {
	case errors.Is(err, fetch.ErrNotFound):
		writeError(w, http.StatusNotFound, "Audio not found", details)
	case errors.Is(err, stt.ErrMissingCredentials):
		writeError(w, http.StatusInternalServerError, "Transcription provider not configured", details)
	case errors.Is(err, stt.ErrNoSpeech):
		writeError(w, http.StatusUnprocessableEntity, "No speech could be recognized", details)
	case errors.As(err, &unknownProvider):
		writeError(w, http.StatusBadRequest, unknownProvider.Error(), details)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusInternalServerError, "Request canceled", details)
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error", details)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
