package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/adrayandaleandrew/baring-construction/internal/config"
	"github.com/adrayandaleandrew/baring-construction/internal/httpserver"
	"github.com/adrayandaleandrew/baring-construction/internal/notify"
	"github.com/adrayandaleandrew/baring-construction/internal/recaptcha"
	"github.com/adrayandaleandrew/baring-construction/internal/storage"
	"github.com/adrayandaleandrew/baring-construction/internal/submission"
)

// main boots the service: config → rate limit ledger → capabilities → HTTP server.
func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	configPath := pflag.String("config", "", "path to a YAML config file (default: $CONFIG_PATH)")
	addr := pflag.String("addr", "", "listen address, overrides LISTEN_ADDR")
	pflag.Parse()

	if err := run(*configPath, *addr); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Shared ledger when configured, otherwise in-process.
	rl, err := newLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer rl.close()

	transport, err := newTransport(ctx, cfg)
	if err != nil {
		return err
	}

	verifyOpts := []recaptcha.Option{recaptcha.WithThreshold(cfg.RecaptchaThreshold)}
	if cfg.RecaptchaVerifyURL != "" {
		verifyOpts = append(verifyOpts, recaptcha.WithVerifyURL(cfg.RecaptchaVerifyURL))
	}

	var storeOpts []storage.Option
	if cfg.BlobBaseURL != "" {
		storeOpts = append(storeOpts, storage.WithBaseURL(cfg.BlobBaseURL))
	}

	deps := submission.Deps{
		Limiter:  rl.limiter,
		Verifier: recaptcha.New(cfg.RecaptchaSecret, verifyOpts...),
		Store:    storage.New(cfg.BlobToken, storeOpts...),
		Notifier: notify.NewDispatcher(transport, cfg.FromEmail, cfg.ContactEmail, notify.Site{
			Name:  cfg.SiteName,
			Phone: cfg.SitePhone,
			Email: cfg.SiteEmail,
		}),
	}

	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Contact: submission.New(submission.Contact, deps),
		Quote:   submission.New(submission.Quote, deps),
		Ready:   rl.ready,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server started",
		"addr", cfg.Addr,
		"rate_limit_backend", cfg.RateLimitBackend,
		"email_provider", cfg.EmailProvider,
		"recaptcha", cfg.RecaptchaSecret != "",
		"blob_storage", cfg.BlobToken != "",
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
