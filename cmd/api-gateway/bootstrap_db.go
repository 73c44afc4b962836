package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Hookery/internal/config/api-gateway"
	pg "github.com/NordCoder/Hookery/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("db connected",
		zap.Int32("max_conns", db.Pool.Config().MaxConns),
		zap.Duration("query_timeout", db.QueryTimeout),
	)
	return db, nil
}
