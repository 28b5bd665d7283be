package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/airframe-trades/optim-core/internal/control"
	"github.com/airframe-trades/optim-core/pkg/config"
	"github.com/airframe-trades/optim-core/pkg/logger"
)

func main() {
	var configPath string
	var httpAddr string
	var logLevel string
	var workDir string

	flag.StringVar(&configPath, "config", "", "path to YAML configuration (defaults apply when empty)")
	flag.StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&workDir, "work-dir", "", "working directory override for optimizer artifacts")
	flag.Parse()

	logger.SetDefault(logger.NewText(logLevel, os.Stdout))

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Error("failed to load configuration", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if workDir != "" {
		cfg.WorkDir = workDir
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.WorkDir, p)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := control.NewObserverServer(
		resolve(cfg.Artifacts.StatusFile),
		resolve(cfg.Artifacts.HistoryFile),
		resolve(cfg.Artifacts.CommandFile),
	)

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           observer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("observer listening", "addr", httpAddr, "work_dir", cfg.WorkDir)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
