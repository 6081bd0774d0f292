package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

const publishTimeout = 5 * time.Second

// channel is the part of *amqp091.Channel the sink uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// QueueSink publishes notifications for web push workers over AMQP.
type QueueSink struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
	queue    string
}

// queuedNotification is the message body consumers receive.
type queuedNotification struct {
	ID       string                      `json:"id"`
	UserID   string                      `json:"user_id"`
	Type     models.NotificationType     `json:"type"`
	Title    string                      `json:"title"`
	Message  string                      `json:"message"`
	Priority models.NotificationPriority `json:"priority"`
	GoalID   *string                     `json:"goal_id,omitempty"`
	Data     map[string]any              `json:"data,omitempty"`
	SentAt   time.Time                   `json:"sent_at"`
}

// NewQueueSink dials the broker and declares a durable direct exchange with
// one queue bound under its own name.
func NewQueueSink(url, exchange, queue string) (*QueueSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch, exchange, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return &QueueSink{conn: conn, channel: ch, exchange: exchange, queue: queue}, nil
}

func declare(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Deliver implements Dispatcher.
func (s *QueueSink) Deliver(ctx context.Context, msg Message) error {
	if !msg.Web || msg.Notification == nil {
		return nil
	}

	n := msg.Notification
	body, err := json.Marshal(queuedNotification{
		ID:       n.ID,
		UserID:   n.UserID,
		Type:     n.Type,
		Title:    n.Title,
		Message:  n.Message,
		Priority: n.Priority,
		GoalID:   n.GoalID,
		Data:     n.Data,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.channel.PublishWithContext(ctx, s.exchange, s.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	logger.Get().Debugw("notification published", "notification_id", n.ID, "exchange", s.exchange, "queue", s.queue)
	return nil
}

// Close releases the channel and the connection.
func (s *QueueSink) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
