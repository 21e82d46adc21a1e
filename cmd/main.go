package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"audio-transcription-service/internal/api/ws"
	"audio-transcription-service/internal/app"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/events"
	"audio-transcription-service/internal/fetch"
	httpapi "audio-transcription-service/internal/http"
	"audio-transcription-service/internal/retry"
	"audio-transcription-service/internal/service/transcription"
	"audio-transcription-service/internal/session"
	"audio-transcription-service/internal/store"
	"audio-transcription-service/internal/stt"
	"audio-transcription-service/internal/stt/azure"
	"audio-transcription-service/internal/stt/mock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	application := app.New(cfg)
	logger := application.Logger

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Startup failed")
	}

	ctx := context.Background()

	// Stores: MongoDB when a URI is configured, in-memory otherwise.
	var (
		sessionStore store.SessionStore
		resultStore  store.ResultStore
		mongoStore   *store.Mongo
	)
	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		m, err := store.NewMongo(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("MongoDB connection failed")
		}
		mongoStore = m
		sessionStore = m.SessionStore()
		resultStore = m.ResultStore()
	} else {
		logger.Warn().Msg("MONGODB_URI not set, using in-memory stores")
		sessionStore = store.NewMemorySessionStore()
		resultStore = store.NewMemoryResultStore()
	}

	// Create Kafka publisher with separate topics for partial and final transcripts
	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Kafka.Principal,
	})
	defer publisher.Close()

	mockEngine := mock.New()

	var azureEngine stt.Engine
	if eng, err := azure.New(azure.Config{
		Key:       cfg.Azure.Key,
		Region:    cfg.Azure.Region,
		Languages: cfg.Azure.Languages,
	}); err != nil {
		logger.Warn().Err(err).Msg("Azure transcription unavailable")
	} else {
		azureEngine = eng
	}

	manager := session.NewManager(sessionStore, mockEngine, publisher)

	svc := transcription.New(fetch.New(), mockEngine, azureEngine, resultStore, retry.Options{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
	})

	router := httpapi.NewRouter(svc, cfg.Dev(), ws.New(manager))

	server := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Service.Port).Msg("Audio transcription service started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	application.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown failed")
	}

	if mongoStore != nil {
		if err := mongoStore.Close(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("MongoDB disconnect failed")
		}
	}
}
