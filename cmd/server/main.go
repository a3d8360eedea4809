package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"blog/internal/auth"
	"blog/internal/blob"
	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/logger"
	"blog/internal/markdown"
	"blog/internal/models"
	"blog/internal/server"
)

func main() {
	cfg := config.FromEnv()
	cfg.BindFlags(pflag.CommandLine)
	pflag.Parse()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", "error", err)
	}

	logger.SetLogger(logger.New(os.Stdout, cfg.LogLevel))

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", "path", cfg.DBPath, "error", err)
	}
	defer database.Close()

	store := models.NewStore(database)
	store.SummaryLength = cfg.SummaryLength

	creds := auth.NewCredentials(store, bcrypt.DefaultCost)
	if cfg.AdminUsername != "" {
		if err := creds.Seed(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Fatal("seed admin credential", "error", err)
		}
		logger.Info("admin credential seeded", "username", cfg.AdminUsername)
	}

	tokens := auth.NewTokenService(auth.TokenConfig{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL})
	srv, err := server.New(server.Options{
		Store: store,
		Auth: &auth.Authenticator{
			Limiter:      auth.NewRateLimiter(cfg.LoginWindow, cfg.RateLimitCapacity),
			Credentials:  creds,
			Tokens:       tokens,
			Rotator:      auth.NewRotator(tokens, cfg.TokenRotateAfter, cfg.RateLimitCapacity),
			AttemptLimit: cfg.LoginAttemptLimit,
		},
		Renderer:       markdown.NewRenderer(),
		Blobs:          blob.NewStore(cfg.ImageDir, database),
		SecureCookies:  cfg.Production,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		logger.Fatal("build server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("listening", "addr", httpServer.Addr, "production", cfg.Production)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
