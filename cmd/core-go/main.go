package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"zoomtier/core-go/internal/config"
	"zoomtier/core-go/internal/device"
	"zoomtier/core-go/internal/engine"
	"zoomtier/core-go/internal/httpapi"
	"zoomtier/core-go/internal/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "core-go",
		Short:        "Content-level resolution engine",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		newResolveCmd(&configPath),
		newValidateCmd(&configPath),
	)
	return root
}

// newEngine builds an engine from cfg, profiled against the local host.
func newEngine(ctx context.Context, log zerolog.Logger, cfg config.Config, m *metrics.Metrics) *engine.Engine {
	e := engine.New(log, engine.Options{
		CacheCapacity: cfg.Cache.Capacity,
		ViewportWidth: cfg.ViewportWidth,
		Metrics:       m,
	})
	e.Initialize(ctx, hostProvider(cfg), cfg.Debug)
	if !cfg.Thresholds.IsZero() {
		e.ReplaceCustomThresholds(cfg.Thresholds)
	}
	return e
}

// hostProvider measures the local machine; a configured viewport width
// stands in when the environment does not provide one.
func hostProvider(cfg config.Config) device.CapabilityProvider {
	h := device.NewHostProvider()
	if cfg.ViewportWidth > 0 {
		getenv := h.Getenv
		h.Getenv = func(k string) string {
			if v := getenv(k); v != "" || k != device.EnvViewportWidth {
				return v
			}
			return strconv.Itoa(cfg.ViewportWidth)
		}
	}
	return h
}

func runServe(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := httpapi.NewLogger(cfg.LogLevel, cfg.Debug)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	e := newEngine(ctx, logger, cfg, m)
	if res := e.ValidateThresholds(); !res.Valid {
		logger.Warn().Strs("violations", res.Violations).Msg("configured thresholds are invalid")
	}

	h := httpapi.NewHandler(logger, e, m)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("core-go listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Path != "" {
		w := config.NewWatcher(logger, cfg.Path, func(next config.Config) {
			set := e.ReplaceCustomThresholds(next.Thresholds)
			logger.Info().Stringer("thresholds", set).Msg("thresholds reloaded from config")
		})
		g.Go(func() error { return w.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("core-go stopped with error")
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
