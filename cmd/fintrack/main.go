package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/connectivity"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/voice"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, os.Stdout)

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	entries, cleanup, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err.Error())
		}
	}()

	banner := connectivity.NewBanner()
	monitor := connectivity.NewMonitor(banner, cfg.ConnectivityProbeURL, cfg.ConnectivityInterval, logger)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Store:        entries,
		Banner:       banner,
		Limiter:      limiter,
		Logger:       logger,
		VoiceEnabled: cfg.VoiceEnabled,
		Voice:        voice.Settings{Locale: cfg.VoiceLocale},
		CacheSize:    cfg.CacheSize,
	})
	srv.MaxHeaderBytes = 1 << 16

	caches := cache.NewManager(logger)
	for _, c := range srv.Caches() {
		caches.Register(c)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"voice", cfg.VoiceEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error { return caches.Run(gctx, time.Minute) })
	g.Go(func() error { return limiter.Run(gctx) })

	return g.Wait()
}
