// Package models defines the persisted records and transcript event payloads.
package models

import "time"

// Provider identifies the transcription engine that produced a result.
type Provider string

const (
	ProviderMock  Provider = "mock"
	ProviderAzure Provider = "azure"
)

// Valid reports whether p is one of the known provider tags.
func (p Provider) Valid() bool {
	return p == ProviderMock || p == ProviderAzure
}

// SessionLog is the durable record of one streaming transcription session.
// It is mutated only by its owning connection: once per chunk (counter
// increment plus partial append) and once by finalization.
type SessionLog struct {
	SessionID      string     `bson:"sessionId" json:"sessionId"`
	ChunksReceived int        `bson:"audioChunksReceived" json:"audioChunksReceived"`
	Events         []string   `bson:"transcriptionEvents" json:"transcriptionEvents"`
	Partials       []string   `bson:"partialTranscriptions" json:"partialTranscriptions"`
	Final          string     `bson:"finalTranscription,omitempty" json:"finalTranscription,omitempty"`
	StartedAt      time.Time  `bson:"startedAt" json:"startedAt"`
	EndedAt        *time.Time `bson:"endedAt,omitempty" json:"endedAt,omitempty"`
	DurationMs     int64      `bson:"duration,omitempty" json:"duration,omitempty"`
}

// Finalized reports whether the session has been finalized.
func (s *SessionLog) Finalized() bool {
	return s.EndedAt != nil
}

// Transcription is a completed batch transcription result. Immutable once saved.
type Transcription struct {
	ID            string    `bson:"_id,omitempty" json:"_id"`
	AudioURL      string    `bson:"audioUrl" json:"audioUrl"`
	Transcription string    `bson:"transcription" json:"transcription"`
	Source        Provider  `bson:"source" json:"source"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// TranscriptPartial is the event published for each partial transcript.
type TranscriptPartial struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	ChunkIndex int    `json:"chunkIndex"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}

// TranscriptFinal is the event published when a session is finalized.
type TranscriptFinal struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	Text       string `json:"text"`
	DurationMs int64  `json:"durationMs"`
	Timestamp  int64  `json:"timestamp"`
}
