// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dragvollklubb/paamelding/internal/captcha"
	"github.com/dragvollklubb/paamelding/internal/config"
	"github.com/dragvollklubb/paamelding/internal/database"
	"github.com/dragvollklubb/paamelding/internal/handler"
	"github.com/dragvollklubb/paamelding/internal/repository"
	"github.com/dragvollklubb/paamelding/internal/service"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	log.Info("connected to postgres")

	sessionRepo := repository.NewSessionRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	unregRepo := repository.NewUnregisterRequestRepository(pool)

	verifier := captcha.NewTurnstileVerifier(cfg.TurnstileSecret, cfg.TurnstileTimeout)
	if cfg.TurnstileSecret == "" {
		log.Warn("TURNSTILE_SECRET_KEY not set; signups will be rejected until configured")
	}
	if cfg.AdminUser == "" || cfg.AdminPass == "" {
		log.Warn("ADMIN_USER/ADMIN_PASS not set; admin routes will answer 500 until configured")
	}

	signupSvc := service.NewSignupService(sessionRepo, regRepo, unregRepo, verifier)
	adminSvc := service.NewAdminService(sessionRepo, regRepo)

	h := handler.New(signupSvc, adminSvc)
	router := handler.NewRouter(h, cfg.AdminUser, cfg.AdminPass)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in a background goroutine so we can listen for the shutdown signal.
	go func() {
		log.Infof("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Info("server stopped")
}
