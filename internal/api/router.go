// Package api is the HTTP JSON surface of the service.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tahcohcat/fitchallenge-web/config"
	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/auth"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/i18n"
	"github.com/tahcohcat/fitchallenge-web/internal/mailer"
	"github.com/tahcohcat/fitchallenge-web/internal/middleware"
	"github.com/tahcohcat/fitchallenge-web/internal/services"
)

type Handler struct {
	cfg          *config.Config
	db           *database.DB
	gate         *auth.Gate
	languages    *i18n.Resolver
	users        *services.UserService
	allowList    *services.AllowListService
	catalog      *services.CatalogService
	achievements *services.AchievementService
	progress     *services.ProgressService
	mailer       mailer.Mailer
	limiter      *middleware.RateLimiter
}

type Deps struct {
	Config       *config.Config
	DB           *database.DB
	Gate         *auth.Gate
	Languages    *i18n.Resolver
	Users        *services.UserService
	AllowList    *services.AllowListService
	Catalog      *services.CatalogService
	Achievements *services.AchievementService
	Progress     *services.ProgressService
	Mailer       mailer.Mailer
	Limiter      *middleware.RateLimiter
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		cfg:          d.Config,
		db:           d.DB,
		gate:         d.Gate,
		languages:    d.Languages,
		users:        d.Users,
		allowList:    d.AllowList,
		catalog:      d.Catalog,
		achievements: d.Achievements,
		progress:     d.Progress,
		mailer:       d.Mailer,
		limiter:      d.Limiter,
	}
}

// Router wires every route plus request logging and the request timeout.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, apperr.NotFound("route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	webhook := h.limiter.Limit("webhook", h.cfg.RateLimit.WebhookPerMinute, time.Minute)
	r.Handle("/api/webhook/cartpanda", webhook(http.HandlerFunc(h.CartpandaWebhook)))

	api := r.PathPrefix("/api/v1").Subrouter()

	login := h.limiter.Limit("login", h.cfg.RateLimit.LoginPerMinute, time.Minute)
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.Handle("/auth/login", login(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	api.Handle("/auth/forgot-password", login(http.HandlerFunc(h.ForgotPassword))).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", h.ResetPassword).Methods(http.MethodPost)
	api.HandleFunc("/languages", h.Languages).Methods(http.MethodGet)

	user := func(fn http.HandlerFunc) http.Handler {
		return h.gate.RequireUser(fn)
	}
	api.Handle("/profile", user(h.Profile)).Methods(http.MethodGet)
	api.Handle("/profile/language", user(h.UpdateLanguage)).Methods(http.MethodPut)

	learner := func(fn http.HandlerFunc) http.Handler {
		return h.gate.RequireUser(h.gate.RequireAuthorized(fn))
	}
	api.Handle("/classes", learner(h.ListClasses)).Methods(http.MethodGet)
	api.Handle("/challenges/{type}/days/{day:[0-9]+}", learner(h.GetDay)).Methods(http.MethodGet)
	api.Handle("/challenges/{type}/days/{day:[0-9]+}/complete", learner(h.CompleteDay)).Methods(http.MethodPost)
	api.Handle("/challenges/{type}/days/{day:[0-9]+}/achievements", learner(h.EvaluateAchievements)).Methods(http.MethodPost)
	api.Handle("/progress", learner(h.GetProgress)).Methods(http.MethodGet)
	api.Handle("/achievements", learner(h.ListAchievements)).Methods(http.MethodGet)
	api.Handle("/materials", learner(h.ListMaterials)).Methods(http.MethodGet)
	api.Handle("/materials/{id}", learner(h.GetMaterial)).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.gate.RequireUser, h.gate.RequireAdmin)

	admin.HandleFunc("/classes", h.AdminListClasses).Methods(http.MethodGet)
	admin.HandleFunc("/classes", h.AdminCreateClass).Methods(http.MethodPost)
	admin.HandleFunc("/classes/{id}", h.AdminUpdateClass).Methods(http.MethodPut)
	admin.HandleFunc("/classes/{id}", h.AdminDeleteClass).Methods(http.MethodDelete)

	admin.HandleFunc("/materials", h.AdminListMaterials).Methods(http.MethodGet)
	admin.HandleFunc("/materials", h.AdminCreateMaterial).Methods(http.MethodPost)
	admin.HandleFunc("/materials/{id}", h.AdminUpdateMaterial).Methods(http.MethodPut)
	admin.HandleFunc("/materials/{id}", h.AdminDeleteMaterial).Methods(http.MethodDelete)

	admin.HandleFunc("/achievements", h.AdminListAchievements).Methods(http.MethodGet)
	admin.HandleFunc("/achievements", h.AdminCreateAchievement).Methods(http.MethodPost)
	admin.HandleFunc("/achievements/{id}", h.AdminUpdateAchievement).Methods(http.MethodPut)
	admin.HandleFunc("/achievements/{id}", h.AdminDeleteAchievement).Methods(http.MethodDelete)

	admin.HandleFunc("/authorized-emails", h.AdminListAuthorizedEmails).Methods(http.MethodGet)
	admin.HandleFunc("/authorized-emails", h.AdminAddAuthorizedEmail).Methods(http.MethodPost)

	return middleware.RequestLogger(middleware.Timeout(h.cfg.Server.RequestTimeout)(r))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]errorBody{
		"error": {Message: "method not allowed", Code: "method_not_allowed"},
	})
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		WriteError(w, r, apperr.Upstream("database unavailable", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/languages
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   h.languages.Default(),
		"supported": h.languages.Supported(),
	})
}

// requestLanguage resolves the content language: ?lang=, then the stored
// preference of the signed-in user, then Accept-Language, then the default.
func (h *Handler) requestLanguage(r *http.Request) (string, error) {
	stored := ""
	if user, ok := auth.UserFromContext(r.Context()); ok {
		stored = user.Language
	}
	lang, err := h.languages.Resolve(r.URL.Query().Get("lang"), stored, r.Header.Get("Accept-Language"))
	if err != nil {
		return "", apperr.Validation(err.Error())
	}
	return lang, nil
}
