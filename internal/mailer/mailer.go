// Package mailer sends the transactional emails of the service. Only
// password reset links are sent today.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tahcohcat/fitchallenge-web/config"
)

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
	Name() string
}

// New picks the provider named by cfg.Provider. An empty provider means dummy.
func New(cfg config.MailConfig) (Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "dummy":
		return NewDummy(), nil
	case "sendgrid":
		return NewSendGrid(cfg)
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
}

// ResetLink builds the frontend URL a reset email points to.
func ResetLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(frontendURL, "/"), token)
}
