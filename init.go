package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tournevent/lalamove/internal/cache"
	"github.com/tournevent/lalamove/internal/config"
	"github.com/tournevent/lalamove/internal/telemetry"
	"github.com/tournevent/lalamove/pkg/lalamove"
	"github.com/tournevent/lalamove/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("debug") {
		cfg.LalamoveDebug, _ = cmd.Flags().GetBool("debug")
	}
	return cfg, nil
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initCityCache(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (cache.CityCache, error) {
	if cfg.RedisURL == "" {
		logger.Info("Using in-memory city cache", zap.Duration("ttl", cfg.CityCacheTTL))
		return cache.NewMemoryCityCache(cfg.CityCacheTTL), nil
	}
	return cache.NewRedisCityCache(ctx, cfg.RedisURL, cfg.CityCacheTTL, logger)
}

func initLalamove(cfg *config.Config, logger *otelzap.Logger) *lalamove.Client {
	lm := cfg.Lalamove()
	logger.Info("Configuring carrier", zap.Stringer("lalamove", lm))
	return lalamove.New(lm, logger, telemetry.Tracer(cfg.ServiceName))
}

func initShipperRegistry(cfg *config.Config, logger *otelzap.Logger) *shipper.Registry {
	registry := shipper.NewRegistry()

	// Register enabled carriers
	if cfg.LalamoveEnabled {
		registry.Register(initLalamove(cfg, logger))
	}

	return registry
}
