package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odontosorriso/booking-platform/internal/booking"
)

type fakeTurns struct {
	replies []string
	err     error
	phone   string
	body    string
}

func (f *fakeTurns) HandleTurn(ctx context.Context, phone, body string) (*booking.TurnResult, error) {
	f.phone = phone
	f.body = body
	if f.err != nil {
		return nil, f.err
	}
	return &booking.TurnResult{Replies: f.replies}, nil
}

type fakeProvider struct {
	sent []OutboundMessage
	err  error
}

func (f *fakeProvider) SendMessage(ctx context.Context, msg OutboundMessage) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func postWebhook(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandlerRepliesInOrder(t *testing.T) {
	turns := &fakeTurns{replies: []string{"primeira", "segunda"}}
	provider := &fakeProvider{}
	h := NewWebhookHandler(turns, provider, WebhookConfig{}, nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+5511999990000")
	form.Set("Body", "quero uma limpeza")
	rec := postWebhook(t, h, form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Response></Response>")

	assert.Equal(t, "5511999990000", turns.phone)
	assert.Equal(t, "quero uma limpeza", turns.body)

	require.Len(t, provider.sent, 2)
	assert.Equal(t, "primeira", provider.sent[0].Body)
	assert.Equal(t, "segunda", provider.sent[1].Body)
	assert.Equal(t, "5511999990000", provider.sent[0].To)
}

func TestWebhookHandlerMissingFields(t *testing.T) {
	h := NewWebhookHandler(&fakeTurns{}, &fakeProvider{}, WebhookConfig{}, nil)

	form := url.Values{}
	form.Set("Body", "oi")
	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	form = url.Values{}
	form.Set("From", "whatsapp:+5511999990000")
	rec = postWebhook(t, h, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandlerTurnError(t *testing.T) {
	h := NewWebhookHandler(&fakeTurns{err: assert.AnError}, &fakeProvider{}, WebhookConfig{}, nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+5511999990000")
	form.Set("Body", "oi")
	rec := postWebhook(t, h, form)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookHandlerSignatureValidation(t *testing.T) {
	const authToken = "secret-token"
	const webhookURL = "https://clinic.example.com/webhooks/whatsapp"

	cfg := WebhookConfig{ValidateSignature: true, AuthToken: authToken, WebhookURL: webhookURL}
	provider := &fakeProvider{}
	h := NewWebhookHandler(&fakeTurns{replies: []string{"ok"}}, provider, cfg, nil)

	form := url.Values{}
	form.Set("From", "whatsapp:+5511999990000")
	form.Set("Body", "oi")

	// no signature
	rec := postWebhook(t, h, form)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// forged signature
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "bogus")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// valid signature
	signature := computeSignature(buildSignaturePayload(webhookURL, form), authToken)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", signature)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, provider.sent, 1)
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"whatsapp:+5511999990000": "5511999990000",
		"+55 (11) 99999-0000":    "5511999990000",
		"5511999990000":          "5511999990000",
		"  whatsapp:+55 11 99999 0000 ": "5511999990000",
		"": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestWhatsAppAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+5511999990000", WhatsAppAddress("5511999990000"))
	assert.Equal(t, "whatsapp:+5511999990000", WhatsAppAddress("whatsapp:+5511999990000"))
	assert.Equal(t, "", WhatsAppAddress(""))
}
