package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tahcohcat/fitchallenge-web/config"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
)

const defaultSendGridURL = "https://api.sendgrid.com/v3/mail/send"

type SendGrid struct {
	apiKey    string
	url       string
	fromEmail string
	fromName  string
	client    *http.Client
	logger    *logger.Log
}

func NewSendGrid(cfg config.MailConfig) (*SendGrid, error) {
	if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
		return nil, fmt.Errorf("sendgrid mail provider needs an API key")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("sendgrid mail provider needs a from address")
	}
	url := strings.TrimSpace(cfg.SendGridURL)
	if url == "" {
		url = defaultSendGridURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &SendGrid{
		apiKey:    cfg.SendGridAPIKey,
		url:       url,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.New().With("provider", "sendgrid"),
	}, nil
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGrid) SendPasswordReset(ctx context.Context, to, link string) error {
	body := sgRequest{
		Personalizations: []sgPersonalization{{To: []sgAddress{{Email: to}}}},
		From:             sgAddress{Email: s.fromEmail, Name: s.fromName},
		Subject:          "Reset your password",
		Content: []sgContent{
			{Type: "text/plain", Value: "Use this link to choose a new password: " + link},
			{Type: "text/html", Value: fmt.Sprintf(`<p>Use this link to choose a new password:</p><p><a href="%s">%s</a></p>`, link, link)},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode sendgrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	s.logger.Info("password reset email sent", "status", resp.StatusCode)
	return nil
}

func (s *SendGrid) Name() string {
	return "sendgrid"
}
