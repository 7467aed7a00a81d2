package api

import (
	"net/http"
	"time"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/auth"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
	"github.com/tahcohcat/fitchallenge-web/internal/mailer"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

type sessionResponse struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	IsAdmin      bool         `json:"is_admin"`
	IsAuthorized bool         `json:"is_authorized"`
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, expires, err := h.gate.Login(w, r, user)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	authorized, err := h.gate.IsAuthorized(r.Context(), user)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, status, sessionResponse{
		User:         user,
		Token:        token,
		ExpiresAt:    expires,
		IsAdmin:      user.IsAdmin(),
		IsAuthorized: authorized,
	})
}

// POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	logger.New().Info("user registered", "user_id", user.ID, "role", user.Role)
	h.startSession(w, r, user, http.StatusCreated)
}

// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), &req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

// POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(w, r); err != nil {
		WriteError(w, r, err)
		return
	}
	success(w)
}

// POST /api/v1/auth/forgot-password always answers 202 so the response does
// not reveal whether the email is registered.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	token, user, err := h.users.CreatePasswordReset(r.Context(), req.Email)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		// nothing to send
	case err != nil:
		WriteError(w, r, err)
		return
	default:
		link := mailer.ResetLink(h.cfg.Mail.FrontendURL, token)
		if err := h.mailer.SendPasswordReset(r.Context(), user.Email, link); err != nil {
			logger.New().WithError(err).Error("failed to send password reset email", "user_id", user.ID)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]bool{"success": true})
}

// POST /api/v1/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.users.ResetPassword(r.Context(), &req); err != nil {
		WriteError(w, r, err)
		return
	}
	success(w)
}

// GET /api/v1/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	authorized, err := h.gate.IsAuthorized(r.Context(), user)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	lang, err := h.requestLanguage(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":          user,
		"is_admin":      user.IsAdmin(),
		"is_authorized": authorized,
		"language":      lang,
	})
}

// PUT /api/v1/profile/language
func (h *Handler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req models.LanguageUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	code, err := h.users.UpdateLanguage(r.Context(), user.ID, req.Language)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"language": code})
}
