package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/odontosorriso/booking-platform/pkg/logging"
)

var twilioSendTracer = otel.Tracer("odontosorriso.internal.messaging.twilio_send")

// TwilioProvider posts WhatsApp messages using Twilio's REST API.
type TwilioProvider struct {
	accountSID string
	authToken  string
	from       string // E.164 of the clinic's WhatsApp number
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioProvider builds a provider with sane defaults.
func NewTwilioProvider(accountSID, authToken, from string, timeout time.Duration, logger *logging.Logger) *TwilioProvider {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TwilioProvider{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var _ Provider = (*TwilioProvider)(nil)

// SendMessage dispatches a single WhatsApp message, retrying transient
// failures.
func (p *TwilioProvider) SendMessage(ctx context.Context, msg OutboundMessage) error {
	if p.accountSID == "" || p.authToken == "" {
		return errors.New("messaging: twilio credentials missing")
	}
	if msg.To == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("odonto.to", msg.To))

	payload := url.Values{}
	payload.Set("To", WhatsAppAddress(msg.To))
	payload.Set("From", WhatsAppAddress(p.from))
	payload.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", p.accountSID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			return fmt.Errorf("messaging: build twilio request: %w", err)
		}
		req.SetBasicAuth(p.accountSID, p.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				p.logger.Info("whatsapp message sent", "to", msg.To, "attempt", attempt)
				return nil
			}
			lastErr = fmt.Errorf("messaging: twilio status %d: %s", resp.StatusCode, string(body))
			// client errors won't improve on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				break
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}

	p.logger.Error("whatsapp message failed", "to", msg.To, "error", lastErr)
	return lastErr
}
