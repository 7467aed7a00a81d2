package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/i18n"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

// PasswordResetTTL is how long a reset link stays valid.
const PasswordResetTTL = 15 * time.Minute

type UserService struct {
	db          *database.DB
	languages   *i18n.Resolver
	adminEmails map[string]bool
	now         func() time.Time
}

func NewUserService(db *database.DB, languages *i18n.Resolver, adminEmails []string) *UserService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &UserService{db: db, languages: languages, adminEmails: admins, now: time.Now}
}

const userColumns = `id, email, password_hash, role, language, created_at, updated_at, last_login_at`

// CreateUser creates a new user account
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperr.Validation("passwords do not match")
	}

	lang := ""
	if req.Language != "" {
		code, ok := s.languages.Normalize(req.Language)
		if !ok {
			return nil, apperr.Validationf("unsupported language %q", req.Language)
		}
		lang = code
	}

	now := s.now().UTC()
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Role:      models.RoleUser,
		Language:  lang,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.adminEmails[user.Email] {
		user.Role = models.RoleAdmin
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (id, email, password_hash, role, language, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :role, :language, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Validation("email already registered")
		}
		return nil, upstream("failed to create user", err)
	}

	return user, nil
}

// AuthenticateUser validates login credentials and returns the user
func (s *UserService) AuthenticateUser(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.GetUserByEmail(ctx, req.Email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthenticated("invalid credentials")
	} else if err != nil {
		return nil, err
	}

	if !user.CheckPassword(req.Password) {
		return nil, apperr.Unauthenticated("invalid credentials")
	}

	if err := s.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

func (s *UserService) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	} else if err != nil {
		return nil, upstream("failed to get user", err)
	}
	return &user, nil
}

func (s *UserService) UpdateLastLogin(ctx context.Context, userID string) error {
	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, now, userID); err != nil {
		return upstream("failed to update last login", err)
	}
	return nil
}

func (s *UserService) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.db.GetContext(ctx, &role, `SELECT role FROM users WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFound("user not found")
	} else if err != nil {
		return "", upstream("failed to get role", err)
	}
	return role, nil
}

// UpdateLanguage stores the preferred content language and returns its
// canonical code.
func (s *UserService) UpdateLanguage(ctx context.Context, userID, language string) (string, error) {
	code, ok := s.languages.Normalize(language)
	if !ok {
		return "", apperr.Validationf("unsupported language %q", language)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET language = ?, updated_at = ? WHERE id = ?`,
		code, s.now().UTC(), userID)
	if err != nil {
		return "", upstream("failed to update language", err)
	}
	if err := requireAffected(res, "user not found"); err != nil {
		return "", err
	}
	return code, nil
}

// CreatePasswordReset issues a one-shot token for email. Only the token's
// hash is stored; the plain token goes into the reset link.
func (s *UserService) CreatePasswordReset(ctx context.Context, email string) (string, *models.User, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", nil, apperr.Validation("a valid email is required")
	}

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO password_resets (token_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		hashToken(token), user.ID, now.Add(PasswordResetTTL), now)
	if err != nil {
		return "", nil, upstream("failed to store reset token", err)
	}

	return token, user, nil
}

// ResetPassword consumes a reset token and sets the new password. A token
// works once and only before it expires.
func (s *UserService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.Password != req.ConfirmPassword {
		return apperr.Validation("passwords do not match")
	}

	invalid := apperr.Validation("invalid or expired reset token")
	now := s.now().UTC()

	var reset models.PasswordReset
	err := s.db.GetContext(ctx, &reset,
		`SELECT token_hash, user_id, expires_at, used_at, created_at FROM password_resets WHERE token_hash = ?`,
		hashToken(req.Token))
	if errors.Is(err, sql.ErrNoRows) {
		return invalid
	} else if err != nil {
		return upstream("failed to look up reset token", err)
	}
	if reset.UsedAt != nil || !now.Before(reset.ExpiresAt) {
		return invalid
	}

	user := &models.User{ID: reset.UserID}
	if err := user.SetPassword(req.Password); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return upstream("failed to reset password", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE token_hash = ? AND used_at IS NULL`, now, reset.TokenHash)
	if err != nil {
		return upstream("failed to reset password", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return invalid
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		user.Password, now, user.ID); err != nil {
		return upstream("failed to reset password", err)
	}

	if err := tx.Commit(); err != nil {
		return upstream("failed to reset password", err)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
