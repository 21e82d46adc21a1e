// Package ws is the streaming transport adapter. It maps WebSocket
// messages onto session manager calls: one logical channel per
// connection, events delivered strictly in order.
package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/session"
	"audio-transcription-service/internal/store"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message types exchanged with clients.
const (
	TypeSessionStart = "session-start"
	TypeAudioChunk   = "audio-chunk"
	TypeSessionEnd   = "session-end"
	TypePartial      = "transcription-partial"
	TypeFinal        = "transcription-final"
	TypeError        = "error"
)

// clientMessage is the inbound message envelope.
type clientMessage struct {
	Type       string `json:"type"`
	Chunk      string `json:"chunk,omitempty"`
	ChunkIndex *int   `json:"chunkIndex,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
}

type sessionStartedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

type partialMsg struct {
	Type      string `json:"type"`
	Partial   string `json:"partial"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

type finalMsg struct {
	Type      string `json:"type"`
	Final     string `json:"final"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

type sessionEndedMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Server upgrades connections and runs the per-connection message loop.
type Server struct {
	manager  *session.Manager
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// New creates the streaming transport server.
func New(manager *session.Manager) *Server {
	return &Server{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: logging.WithComponent("ws"),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Client connected")
	s.handleConn(r.Context(), conn)
}

// handleConn reads messages until the connection closes. Messages for one
// connection are handled sequentially, so per-session ordering is the
// arrival order. A read-loop exit without an explicit session-end
// auto-finalizes the session; no outbound delivery is attempted then.
func (s *Server) handleConn(ctx context.Context, conn *websocket.Conn) {
	var sessionID string

	defer func() {
		conn.Close()
		if sessionID != "" {
			// The request context is gone once the connection drops.
			s.manager.Disconnect(context.Background(), sessionID)
		}
		s.log.Info().Str("sessionId", sessionID).Msg("Client disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.writeError(conn, "Invalid message", err)
			continue
		}

		switch msg.Type {
		case TypeSessionStart:
			sessionID = s.handleSessionStart(ctx, conn, sessionID)
		case TypeAudioChunk:
			s.handleAudioChunk(ctx, conn, sessionID, msg)
		case TypeSessionEnd:
			s.handleSessionEnd(ctx, conn, sessionID)
		default:
			s.writeError(conn, "Unknown message type: "+msg.Type, nil)
		}
	}
}

func (s *Server) handleSessionStart(ctx context.Context, conn *websocket.Conn, current string) string {
	if current != "" {
		s.writeError(conn, "Session already started", nil)
		return current
	}

	sessionID, err := s.manager.Start(ctx)
	if err != nil {
		s.writeError(conn, "Failed to start session", err)
		return ""
	}

	s.write(conn, sessionStartedMsg{Type: TypeSessionStart, SessionID: sessionID})
	return sessionID
}

func (s *Server) handleAudioChunk(ctx context.Context, conn *websocket.Conn, sessionID string, msg clientMessage) {
	if sessionID == "" {
		s.writeError(conn, "No active session", nil)
		return
	}

	ev, err := s.manager.ProcessChunk(ctx, sessionID, decodeChunk(msg.Chunk))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidChunk):
			s.writeError(conn, "Invalid audio chunk data", nil)
		case errors.Is(err, store.ErrSessionNotFound):
			s.writeError(conn, "Unknown session", nil)
		default:
			s.writeError(conn, "Failed to process audio chunk", err)
		}
		return
	}

	// The client-side counter is advisory; the persisted counter wins.
	if msg.ChunkIndex != nil && *msg.ChunkIndex != ev.ChunkIndex {
		s.log.Debug().
			Str("sessionId", sessionID).
			Int("clientIndex", *msg.ChunkIndex).
			Int("derivedIndex", ev.ChunkIndex).
			Msg("Client chunk index diverged from persisted counter")
	}
	if ev.LogErr != nil {
		s.log.Warn().Err(ev.LogErr).Str("sessionId", sessionID).Msg("Partial delivered despite log failure")
	}

	s.write(conn, partialMsg{
		Type:      TypePartial,
		Partial:   ev.Partial,
		SessionID: ev.SessionID,
		Timestamp: ev.Timestamp.Format(time.RFC3339Nano),
	})
}

func (s *Server) handleSessionEnd(ctx context.Context, conn *websocket.Conn, sessionID string) {
	if sessionID == "" {
		s.writeError(conn, "No active session", nil)
		return
	}

	ev, err := s.manager.Finalize(ctx, sessionID)
	if err != nil {
		s.writeError(conn, "Failed to end session", err)
		return
	}
	if ev.LogErr != nil {
		s.log.Warn().Err(ev.LogErr).Str("sessionId", sessionID).Msg("Final delivered despite log failure")
	}

	s.write(conn, finalMsg{
		Type:      TypeFinal,
		Final:     ev.Final,
		SessionID: ev.SessionID,
		Timestamp: ev.Timestamp.Format(time.RFC3339Nano),
	})
	s.write(conn, sessionEndedMsg{
		Type:      TypeSessionEnd,
		SessionID: ev.SessionID,
		Message:   "Session ended successfully",
	})
}

// decodeChunk accepts either base64-encoded audio or raw text payloads.
func decodeChunk(chunk string) []byte {
	if chunk == "" {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(chunk); err == nil {
		return decoded
	}
	return []byte(chunk)
}

func (s *Server) write(conn *websocket.Conn, msg any) {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Error().Err(err).Msg("Failed to write WebSocket message")
	}
}

func (s *Server) writeError(conn *websocket.Conn, message string, err error) {
	out := errorMsg{Type: TypeError, Message: message}
	if err != nil {
		out.Error = err.Error()
	}
	s.write(conn, out)
}
