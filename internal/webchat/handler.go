package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/odontosorriso/booking-platform/internal/appointments"
	"github.com/odontosorriso/booking-platform/internal/booking"
	"github.com/odontosorriso/booking-platform/internal/session"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// TurnHandler runs one inbound patient message through the booking
// engine. Implemented by the booking orchestrator.
type TurnHandler interface {
	HandleTurn(ctx context.Context, phone, body string) (*booking.TurnResult, error)
}

// SessionReader loads existing sessions for history replay.
type SessionReader interface {
	Get(ctx context.Context, phone string) (*session.Session, error)
}

// Handler serves the in-browser WhatsApp simulator over WebSocket. It
// drives the exact same engine as the real webhook, so a conversation
// typed in the widget behaves like one typed in WhatsApp.
type Handler struct {
	turns    TurnHandler
	sessions SessionReader
	logger   *logging.Logger

	mu    sync.RWMutex
	conns map[string]*websocket.Conn // phone -> active connection
}

// InboundMessage is what the simulator widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type        string                    `json:"type"` // "session", "history", "message", "appointment", "pong", "error"
	From        string                    `json:"from,omitempty"`
	Text        string                    `json:"text,omitempty"`
	Phone       string                    `json:"phone,omitempty"`
	Timestamp   string                    `json:"timestamp,omitempty"`
	Messages    []session.Message         `json:"messages,omitempty"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
}

// NewHandler creates the simulator handler.
func NewHandler(turns TurnHandler, sessions SessionReader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		turns:    turns,
		sessions: sessions,
		logger:   logger,
		conns:    make(map[string]*websocket.Conn),
	}
}

// generatePhone creates a throwaway phone-like identifier for widget
// visitors who did not provide one.
func generatePhone() string {
	b := make([]byte, 7)
	if _, err := rand.Read(b); err != nil {
		return "web" + time.Now().UTC().Format("150405.000000000")
	}
	return "web" + hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles the chat loop.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		phone = generatePhone()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", Phone: phone})

	if sess, err := h.sessions.Get(r.Context(), phone); err == nil && len(sess.Messages) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: sess.Messages})
	}

	h.mu.Lock()
	h.conns[phone] = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.conns[phone] == conn {
			delete(h.conns, phone)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "phone", phone)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Info("webchat: connection closed", "phone", phone)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		h.processMessage(r.Context(), conn, phone, msg.Text)
	}
}

func (h *Handler) processMessage(ctx context.Context, conn *websocket.Conn, phone, text string) {
	result, err := h.turns.HandleTurn(ctx, phone, text)
	if err != nil {
		h.logger.Error("webchat: turn failed", "error", err, "phone", phone)
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type: "error",
			Text: "Desculpe, algo deu errado. Tente novamente.",
		})
		return
	}

	for _, reply := range result.Replies {
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:      "message",
			From:      session.FromAgent,
			Text:      reply,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
	if result.Appointment != nil {
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:        "appointment",
			Appointment: result.Appointment,
		})
	}
}
