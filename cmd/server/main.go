// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/tahcohcat/fitchallenge-web/config"
	"github.com/tahcohcat/fitchallenge-web/internal/api"
	"github.com/tahcohcat/fitchallenge-web/internal/auth"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/i18n"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
	"github.com/tahcohcat/fitchallenge-web/internal/mailer"
	"github.com/tahcohcat/fitchallenge-web/internal/middleware"
	"github.com/tahcohcat/fitchallenge-web/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fitchallenge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config from files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Mode, logger.LogLevel(cfg.Log.Level)); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path, database.Options{BusyTimeoutMS: cfg.Database.BusyTimeoutMS})
	if err != nil {
		return err
	}
	defer db.Close()

	languages, err := i18n.NewResolver(cfg.I18n.Supported, cfg.I18n.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("invalid i18n config: %w", err)
	}

	// Initialize services
	users := services.NewUserService(db, languages, cfg.Auth.AdminEmails)
	allowList := services.NewAllowListService(db)
	catalog := services.NewCatalogService(db, languages)
	achievements := services.NewAchievementService(db, languages)
	progress := services.NewProgressService(db, catalog, achievements)

	if cfg.Seed.Achievements {
		if err := achievements.SeedDefaults(ctx); err != nil {
			return err
		}
	}

	mail, err := mailer.New(cfg.Mail)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(nil, false)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, rate limits will fail open", "addr", cfg.Redis.Addr)
		}
		limiter = middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.Server.TrustProxy)
	} else {
		log.Info("redis not configured, rate limiting disabled")
	}

	handler := api.NewHandler(api.Deps{
		Config:       cfg,
		DB:           db,
		Gate:         auth.NewGate(cfg.Auth, users, allowList, api.WriteError),
		Languages:    languages,
		Users:        users,
		AllowList:    allowList,
		Catalog:      catalog,
		Achievements: achievements,
		Progress:     progress,
		Mailer:       mail,
		Limiter:      limiter,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language", "X-Request-ID", "X-Webhook-Secret"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(handler.Router()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.RequestTimeout + 5*time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("fitchallenge server starting",
			"port", cfg.Server.Port,
			"database", cfg.Database.Path,
			"mailer", mail.Name(),
			"languages", languages.Supported(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
