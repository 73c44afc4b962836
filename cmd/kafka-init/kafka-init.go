package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	tools "github.com/NordCoder/Hookery/internal/config/tools"
	"github.com/NordCoder/Hookery/internal/obs"
	kafkax "github.com/NordCoder/Hookery/internal/repository/kafka"
)

func main() {
	cfg, err := tools.LoadKafkaInit()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := obs.NewLogger(cfg.Log.AsLoggerConfig("hookery/kafka-init"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	for _, spec := range cfg.TopicSpecs() {
		if err := kafkax.EnsureTopic(ctx, cfg.Brokers, spec, logger); err != nil {
			logger.Fatal("ensure topic", zap.String("topic", spec.Name), zap.Error(err))
		}
		logger.Info("topic ready", zap.String("topic", spec.Name), zap.Int("partitions", spec.NumPartitions))
	}
	logger.Info("kafka-init ok")
}
