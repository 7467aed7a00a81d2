package services

import (
	"context"
	"time"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

// AllowListService is the set of emails allowed to use the challenge
// content, fed by purchase webhooks. Emails are stored lower-cased.
type AllowListService struct {
	db  *database.DB
	now func() time.Time
}

func NewAllowListService(db *database.DB) *AllowListService {
	return &AllowListService{db: db, now: time.Now}
}

// Add inserts email unless it is already present. It reports whether a row
// was created.
func (s *AllowListService) Add(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, apperr.Validation("email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return false, apperr.Validation("email must be a valid email")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO authorized_emails (email, created_at) VALUES (?, ?)`, email, s.now().UTC())
	if err != nil {
		return false, upstream("failed to authorize email", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, upstream("failed to authorize email", err)
	}
	if n > 0 {
		logger.New().Info("email authorized", "email", email)
	}
	return n > 0, nil
}

func (s *AllowListService) IsAuthorized(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := s.db.GetContext(ctx, &ok,
		`SELECT EXISTS(SELECT 1 FROM authorized_emails WHERE email = ?)`, normalizeEmail(email))
	if err != nil {
		return false, upstream("failed to check authorization", err)
	}
	return ok, nil
}

// List returns the allow-list, newest first.
func (s *AllowListService) List(ctx context.Context) ([]models.AuthorizedEmail, error) {
	emails := []models.AuthorizedEmail{}
	err := s.db.SelectContext(ctx, &emails,
		`SELECT email, created_at FROM authorized_emails ORDER BY created_at DESC, email ASC`)
	if err != nil {
		return nil, upstream("failed to list authorized emails", err)
	}
	return emails, nil
}
