package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/bondeval/config"
	"github.com/meenmo/bondeval/pricing"
	"github.com/meenmo/bondeval/server"
	"github.com/meenmo/bondeval/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var st store.Store
	if cfg.Postgres.DSN != "" {
		pg, err := store.NewPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		st = pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemory()
	}
	defer st.Close()

	if err := st.Init(ctx); err != nil {
		logger.Fatalf("failed to init schema: %v", err)
	}

	svc := pricing.NewService(st, logger)
	router := server.NewRouter(server.NewHandler(svc, logger))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
