package server

import (
	"fmt"

	"budgetwise/internal/config"
	"budgetwise/internal/delivery"
	"budgetwise/internal/logger"
)

// NewDispatcher builds the delivery chain enabled by cfg: SMTP when a host is
// configured and the AMQP queue when a broker URL is set. The returned close
// function releases broker resources and is always safe to call.
func NewDispatcher(cfg *config.Config) (delivery.Dispatcher, func(), error) {
	var sinks delivery.Multi
	closeFn := func() {}

	if cfg.EmailEnabled() {
		sinks = append(sinks, delivery.NewEmailSink(delivery.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		}))
	}

	if cfg.AMQPURL != "" {
		queue, err := delivery.NewQueueSink(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to connect notification queue: %w", err)
		}
		sinks = append(sinks, queue)
		closeFn = func() {
			if err := queue.Close(); err != nil {
				logger.Get().Warnw("notification queue close error", "error", err)
			}
		}
	}

	logger.Get().Infow("notification delivery configured",
		"email", cfg.EmailEnabled(),
		"queue", cfg.AMQPURL != "",
	)

	if len(sinks) == 0 {
		return delivery.Nop{}, closeFn, nil
	}
	return delivery.WithTimeout(sinks, cfg.DeliveryTimeout), closeFn, nil
}
