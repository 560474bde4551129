package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSender(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "secret")
	require.NoError(t, s.Send(context.Background(), "5551234567", "hello"))
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, map[string]string{"to": "5551234567", "body": "hello"}, got)
}

func TestWebhookSenderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL, "").Send(context.Background(), "5551234567", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	err = NewWebhookSender("", "").Send(context.Background(), "5551234567", "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew(t *testing.T) {
	assert.Equal(t, "sms-noop", New("", "", "").ProviderID())
	assert.Equal(t, "sms-noop", New("NOOP", "", "").ProviderID())
	assert.Equal(t, "sms-webhook", New("webhook", "http://sms.local", "").ProviderID())
}

func TestConfirmationText(t *testing.T) {
	got := ConfirmationText("MINERVA", "Haircut", "Monday, March 2, 2026", "2:00 PM", "ABCD1234")
	assert.Equal(t, "MINERVA: your Haircut is confirmed for Monday, March 2, 2026 at 2:00 PM. Ref ABCD1234. Reply or call us to reschedule.", got)
}
