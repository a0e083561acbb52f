// Package cli provides common CLI initialization utilities shared by
// cmd/fintrack and cmd/fintrack-voice.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and makes it
// the default. An unknown level falls back to info with a warning.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Handler:   log.NewHandler(w, level, cfg.LogFormat),
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err.Error())
	}
	return logger
}

// LoadAndValidateConfig loads .env and the environment, then validates.
// It exits the process on failure.
func LoadAndValidateConfig() *config.Config {
	cfg, err := config.Load(".env")
	if err != nil {
		log.New(log.DefaultConfig()).Error("Failed to load configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// OpenStore creates the configured backend, connects the optional AMQP feed and
// loads the entry store. The returned cleanup closes everything it opened.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*store.Store, func() error, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{result.Cleanup}

	opts := store.Options{Key: cfg.StorageKey, Logger: logger}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			// The feed is informational; the tracker works without it.
			logger.Warn("AMQP unavailable, entry events disabled", log.FieldError, err.Error())
		} else {
			opts.Notifier = client
			closers = append(closers, client.Close)
		}
	}

	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return store.Open(ctx, result.Backend, opts), cleanup, nil
}
