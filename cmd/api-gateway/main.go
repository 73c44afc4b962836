package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	config "github.com/NordCoder/Hookery/internal/config/api-gateway"
	pg "github.com/NordCoder/Hookery/internal/repository/postgres"
	"github.com/NordCoder/Hookery/internal/services/api-gateway/webhook"
)

func main() {
	configPath := flag.String("config", "config/api-gateway.yaml", "path to the YAML config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-gateway", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	producer, sender, err := initEvents(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("events init", zap.Error(err))
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Warn("producer close", zap.Error(err))
		}
	}()

	uc := webhook.NewUsecase(
		pg.NewTransactor(db, logger),
		pg.NewWebHookRepo(db),
		pg.NewWebHookTokenRepo(db),
		pg.NewFavoriteRepo(db),
		sender,
		logger,
	)
	hooks := webhook.NewServer(logger, uc)

	grpcServer, healthSrv, grpcLn, err := buildGRPCServer(cfg, logger)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	go watchDB(rootCtx, healthSrv, db, cfg.Server.HealthInterval, logger)

	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, cfg, logger) }()

	httpSrv, err := buildHTTPServer(cfg, logger, db, hooks)
	if err != nil {
		logger.Fatal("build http", zap.Error(err))
	}

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	gracefulStopGRPC(grpcServer)
	logger.Info("bye")
}
