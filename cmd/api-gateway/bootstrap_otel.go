package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Hookery/internal/config/api-gateway"
	"github.com/NordCoder/Hookery/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enable {
		logger.Info("tracing enabled", zap.String("endpoint", cfg.OTEL.OTLPEndpoint), zap.Float64("ratio", cfg.OTEL.SampleRatio))
	}
	return closer.Shutdown, nil
}
