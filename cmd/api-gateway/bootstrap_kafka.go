package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Hookery/internal/config/api-gateway"
	kafkax "github.com/NordCoder/Hookery/internal/repository/kafka"
)

func initEvents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*kafkax.Producer, *kafkax.EventSender, error) {
	if cfg.Events.EnsureTopic {
		if err := kafkax.EnsureTopic(ctx, cfg.Events.Brokers, cfg.Events.AsTopicSpec(), logger); err != nil {
			return nil, nil, err
		}
	}
	producer := kafkax.NewProducer(cfg.Events.ProducerConfig).WithLogger(logger)
	logger.Info("events producer ready",
		zap.Strings("brokers", cfg.Events.Brokers),
		zap.String("topic", cfg.Events.Topic),
	)
	return producer, kafkax.NewEventSender(producer, cfg.Events.KeyField), nil
}
