package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"secretbox/api"
	"secretbox/config"
	"secretbox/kafka"
	"secretbox/logger"
	"secretbox/pseudonym"
	"secretbox/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Error("fatal error", err)
		os.Exit(1)
	}
}

// run only fails when the listener cannot serve. Bad configuration and an unreachable
// datastore are logged loudly and the site keeps serving pages.
func run() error {
	cfg, cfgErr := config.Load()
	logger.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting application")
	if cfgErr != nil {
		logger.Error("configuration invalid; affected settings use defaults", cfgErr)
	}
	for _, w := range cfg.Warnings() {
		logger.Warn("WARNING: " + w)
	}

	// Root context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error("WARNING: store unavailable; secrets will not be persisted", err,
			logger.FieldKV("driver", cfg.StoreDriver))
		backend = store.Unavailable{Err: err}
	}
	repo := store.NewMessageStore(backend, store.WithValidator(api.NewMessageValidator()))
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			logger.Error("store close failed", err)
		}
	}()

	var dlq api.DeadLetter
	if cfg.KafkaBroker != "" {
		w := kafka.NewDeadLetterWriter(cfg.KafkaBroker, cfg.KafkaDLQTopic)
		defer w.Close()
		dlq = w
	}

	handler := api.NewServer(repo, pseudonym.NewRandom(), dlq, api.Settings{
		ArchivePath:      cfg.ArchivePath,
		ArchiveLimit:     cfg.ArchiveLimit,
		MessageMaxLength: cfg.MessageMaxLength,
	})
	srv := api.NewHTTPServer(":"+cfg.Port, handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logger.FieldKV("port", cfg.Port), logger.FieldKV("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("server forced to shutdown", err)
	}
	logger.Info("server exited")
	return nil
}
