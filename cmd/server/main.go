package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"blogd/internal/app"
	"blogd/internal/config"
	"blogd/internal/ratelimit"
	"blogd/internal/server"
	"blogd/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	tokenTTL, err := config.ParseTokenTTL(cfg.TokenTTL)
	if err != nil {
		log.Fatalf("failed to parse token TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:            cfg.DatabaseURL,
		RedisAddr:              cfg.RedisAddr,
		RedisPassword:          cfg.RedisPassword,
		SessionTTL:             sessionTTL,
		TokenSecret:            cfg.TokenSecret,
		TokenTTL:               tokenTTL,
		AccountAlwaysConfirmed: cfg.AccountAlwaysConfirmed,
		SiteURL:                cfg.SiteURL,
		MailSender:             cfg.MailSender,
		MailAddr:               cfg.MailAddr,
		ContactAddr:            cfg.ContactAddr,
		Logger:                 logger,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:             appCore,
		RegisterLimiter: newLimiter(cfg, "blogd:ratelimit:register", cfg.RegisterRateLimitPerMinute),
		LoginLimiter:    newLimiter(cfg, "blogd:ratelimit:login", cfg.LoginRateLimitPerMinute),
		ResetLimiter:    newLimiter(cfg, "blogd:ratelimit:reset", cfg.ResetRateLimitPerMinute),
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}

func newLimiter(cfg config.FileConfig, prefix string, perMinute int) *ratelimit.Limiter {
	if perMinute <= 0 {
		return nil
	}
	limiter, err := ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, prefix, perMinute, time.Minute)
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}
	return limiter
}
