package messaging

import (
	"context"

	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// OutboundMessage is one WhatsApp message to deliver.
type OutboundMessage struct {
	To   string // E.164, without the whatsapp: prefix
	Body string
}

// Provider delivers outbound messages. Implementations must be safe for
// concurrent use.
type Provider interface {
	SendMessage(ctx context.Context, msg OutboundMessage) error
}

// StubProvider logs instead of sending. Used in development and when no
// Twilio credentials are configured.
type StubProvider struct {
	logger *logging.Logger
}

// NewStubProvider creates a log-only provider.
func NewStubProvider(logger *logging.Logger) *StubProvider {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubProvider{logger: logger}
}

// SendMessage logs the message and drops it.
func (s *StubProvider) SendMessage(ctx context.Context, msg OutboundMessage) error {
	s.logger.Info("stub provider: message not sent", "to", msg.To, "body", msg.Body)
	return nil
}
