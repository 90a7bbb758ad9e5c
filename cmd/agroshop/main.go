// Package main запускает движок сессии агромагазина с локальным HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/agroshop-session/internal/config"
	"github.com/mmeshcher/agroshop-session/internal/gateway"
	"github.com/mmeshcher/agroshop-session/internal/handler"
	"github.com/mmeshcher/agroshop-session/internal/session"
	"github.com/mmeshcher/agroshop-session/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	var st store.Store
	if cfg.DatabaseURI != "" {
		st, err = store.NewPostgresStore(cfg.DatabaseURI, cfg.DeviceID)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
	} else {
		sugar.Warn("DATABASE_URI is empty, local state will not survive restart")
		st = store.NewMemoryStore()
	}
	defer st.Close()

	gw := gateway.NewClient(cfg.GatewayAddress, cfg.GatewayTimeout)
	ctrl := session.NewController(gw, store.NewLocalState(st), nil, logger.Named("session"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx); err != nil {
		sugar.Fatalw("session restore error", "error", err.Error())
	}

	h := handler.NewHandler(ctrl, logger)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting local api", "addr", cfg.RunAddress, "gateway", cfg.GatewayAddress, "device", cfg.DeviceID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
