// mailmind-server is the MailMind backend: Google OAuth login, a JWT-guarded
// email API, and the conversational assistant endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mailmindhq/mailmind/internal/assist"
	"github.com/mailmindhq/mailmind/internal/auth"
	"github.com/mailmindhq/mailmind/internal/chat"
	"github.com/mailmindhq/mailmind/internal/config"
	"github.com/mailmindhq/mailmind/internal/llm"
	"github.com/mailmindhq/mailmind/internal/rate"
	"github.com/mailmindhq/mailmind/internal/runtime"
	"github.com/mailmindhq/mailmind/internal/server"
)

const shutdownGrace = 10 * time.Second

func main() {
	addr := flag.String("addr", "", "listen address (overrides LISTEN_ADDR)")
	envFile := flag.String("env-file", "", "path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		runtime.DefaultLogger().Error("load configuration", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	if err := run(cfg); err != nil {
		runtime.DefaultLogger().Error("mailmind-server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := runtime.DefaultLogger()

	groq := llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, log)

	flow := auth.NewFlow(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	creds := auth.NewCredentialStore(flow.Config())
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	var limiter rate.Limiter
	if cfg.GmailRPS > 0 {
		bucket := rate.NewTokenBucket(cfg.GmailRPS)
		limiter = bucket
		defer bucket.Stop()
	}
	provider := &runtime.UserClientProvider{Creds: creds, Limiter: limiter, Log: log}

	assistSvc := assist.NewService(groq, log)
	sessions := chat.NewStore()
	chatSvc := chat.NewService(groq, assistSvc, provider, sessions, log)

	srv := &server.Server{
		Chat:        chatSvc,
		Assist:      assistSvc,
		Mail:        provider,
		Sessions:    sessions,
		Flow:        flow,
		JWT:         issuer,
		Creds:       creds,
		Log:         log,
		FrontendURL: cfg.FrontendURL,
		Environment: cfg.Environment,
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr, "environment", cfg.Environment)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
