// Package auth is the identity gate: it works out who the caller is, from a
// bearer token or the session cookie, and whether they may use learner or
// admin routes.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"github.com/tahcohcat/fitchallenge-web/config"
	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

const sessionUserKey = "user_id"

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type AllowList interface {
	IsAuthorized(ctx context.Context, email string) (bool, error)
}

// ErrorWriter renders an error response. The api package supplies its JSON
// envelope so auth failures look like every other error.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type Gate struct {
	store       *sessions.CookieStore
	sessionName string
	tokens      *TokenManager
	users       UserLookup
	allowList   AllowList
	writeError  ErrorWriter
}

func NewGate(cfg config.AuthConfig, users UserLookup, allowList AllowList, writeError ErrorWriter) *Gate {
	tokens := NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(tokens.TTL() / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	name := cfg.SessionName
	if name == "" {
		name = "fitchallenge-session"
	}
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, apperr.Message(err), apperr.HTTPStatus(err))
		}
	}

	return &Gate{
		store:       store,
		sessionName: name,
		tokens:      tokens,
		users:       users,
		allowList:   allowList,
		writeError:  writeError,
	}
}

func (g *Gate) Tokens() *TokenManager { return g.tokens }

// Login starts a cookie session for user and returns a bearer token for API
// clients.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request, user *models.User) (string, time.Time, error) {
	token, expires, err := g.tokens.Generate(user.ID)
	if err != nil {
		return "", time.Time{}, err
	}

	session, _ := g.store.Get(r, g.sessionName)
	session.Values[sessionUserKey] = user.ID
	if err := session.Save(r, w); err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Logout expires the session cookie. Bearer tokens stay valid until expiry.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := g.store.Get(r, g.sessionName)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// CurrentUser resolves the caller. A bearer token wins over the session; a
// request with neither is Unauthenticated.
func (g *Gate) CurrentUser(r *http.Request) (*models.User, error) {
	userID, err := g.userIDFrom(r)
	if err != nil {
		return nil, err
	}

	user, err := g.users.GetUserByID(r.Context(), userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthenticated("unknown user")
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func (g *Gate) userIDFrom(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", apperr.Unauthenticated("malformed authorization header")
		}
		userID, err := g.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			logger.New().WithError(err).Debug("rejected bearer token")
			return "", apperr.Unauthenticated("invalid or expired token")
		}
		return userID, nil
	}

	session, err := g.store.Get(r, g.sessionName)
	if err != nil {
		return "", apperr.Unauthenticated("invalid session")
	}
	userID, ok := session.Values[sessionUserKey].(string)
	if !ok || userID == "" {
		return "", apperr.Unauthenticated("authentication required")
	}
	return userID, nil
}

// IsAuthorized reports whether user may use the challenge content. Admins
// always may; everyone else needs an allow-listed email.
func (g *Gate) IsAuthorized(ctx context.Context, user *models.User) (bool, error) {
	if user.IsAdmin() {
		return true, nil
	}
	return g.allowList.IsAuthorized(ctx, user.Email)
}

// RequireUser rejects anonymous requests with 401 and stores the user in the
// request context.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.CurrentUser(r)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAuthorized must run after RequireUser.
func (g *Gate) RequireAuthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			g.writeError(w, r, apperr.Unauthenticated("authentication required"))
			return
		}
		allowed, err := g.IsAuthorized(r.Context(), user)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		if !allowed {
			g.writeError(w, r, apperr.Forbidden("no active purchase for this account"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after RequireUser.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			g.writeError(w, r, apperr.Unauthenticated("authentication required"))
			return
		}
		if !user.IsAdmin() {
			g.writeError(w, r, apperr.Forbidden("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*models.User)
	return user, ok && user != nil
}
