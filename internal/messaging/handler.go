package messaging

import (
	"context"
	"net/http"

	"github.com/odontosorriso/booking-platform/internal/booking"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?>
<Response></Response>`

// TurnHandler runs one inbound patient message through the booking
// engine. Implemented by the booking orchestrator.
type TurnHandler interface {
	HandleTurn(ctx context.Context, phone, body string) (*booking.TurnResult, error)
}

// WebhookConfig controls inbound webhook behavior.
type WebhookConfig struct {
	// ValidateSignature rejects requests without a valid
	// X-Twilio-Signature header. Off by default for local development.
	ValidateSignature bool
	AuthToken         string
	WebhookURL        string
}

// WebhookHandler receives Twilio WhatsApp webhooks and answers the
// patient through the outbound provider. The webhook response itself is
// always empty TwiML: replies go out as separate messages.
type WebhookHandler struct {
	turns    TurnHandler
	provider Provider
	cfg      WebhookConfig
	logger   *logging.Logger
}

// NewWebhookHandler creates the inbound WhatsApp handler.
func NewWebhookHandler(turns TurnHandler, provider Provider, cfg WebhookConfig, logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		turns:    turns,
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// ServeHTTP handles POST /webhooks/whatsapp.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.cfg.ValidateSignature && !ValidateTwilioSignature(r, h.cfg.AuthToken, h.cfg.WebhookURL) {
		h.logger.Error("twilio signature validation failed", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	phone := NormalizePhone(webhook.From)
	if phone == "" || webhook.Body == "" {
		http.Error(w, "missing From or Body", http.StatusBadRequest)
		return
	}

	result, err := h.turns.HandleTurn(r.Context(), phone, webhook.Body)
	if err != nil {
		h.logger.Error("turn processing failed", "error", err, "phone", phone)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	// replies must arrive in conversation order
	for _, reply := range result.Replies {
		if err := h.provider.SendMessage(r.Context(), OutboundMessage{To: phone, Body: reply}); err != nil {
			h.logger.Error("reply delivery failed", "error", err, "phone", phone)
			break
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}
