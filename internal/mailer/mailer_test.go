package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahcohcat/fitchallenge-web/config"
)

func TestNewPicksProvider(t *testing.T) {
	m, err := New(config.MailConfig{})
	require.NoError(t, err)
	assert.Equal(t, "dummy", m.Name())

	_, err = New(config.MailConfig{Provider: "sendgrid"})
	assert.Error(t, err)

	m, err = New(config.MailConfig{Provider: "SendGrid", SendGridAPIKey: "key", FromEmail: "no-reply@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", m.Name())

	_, err = New(config.MailConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestResetLink(t *testing.T) {
	assert.Equal(t, "https://app.example.com/reset-password?token=abc",
		ResetLink("https://app.example.com/", "abc"))
}

func TestDummyRecordsMessages(t *testing.T) {
	d := NewDummy()
	require.NoError(t, d.SendPasswordReset(context.Background(), "a@example.com", "https://x/reset"))

	sent := d.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Equal(t, "https://x/reset", sent[0].Link)
}

func TestSendGridSendsResetEmail(t *testing.T) {
	var got sgRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sg, err := NewSendGrid(config.MailConfig{
		SendGridAPIKey: "test-key",
		SendGridURL:    srv.URL,
		FromEmail:      "no-reply@example.com",
		FromName:       "Fit Challenge",
	})
	require.NoError(t, err)

	require.NoError(t, sg.SendPasswordReset(context.Background(), "learner@example.com", "https://app/reset-password?token=t"))
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "learner@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "no-reply@example.com", got.From.Email)
	require.NotEmpty(t, got.Content)
	assert.Contains(t, got.Content[0].Value, "https://app/reset-password?token=t")
}

func TestSendGridReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	sg, err := NewSendGrid(config.MailConfig{SendGridAPIKey: "k", SendGridURL: srv.URL, FromEmail: "f@example.com"})
	require.NoError(t, err)

	err = sg.SendPasswordReset(context.Background(), "learner@example.com", "https://app/reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
