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

	"material_lending/app"
	"material_lending/config"
	"material_lending/routes"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := app.NewLogger(cfg.Mode)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.BootstrapProfessor(ctx, cfg, application.Repo, log); err != nil {
		return fmt.Errorf("bootstrap professor: %w", err)
	}

	routes.RegisterRoutes(application.Router, application)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: application.Router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
