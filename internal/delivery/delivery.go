// Package delivery hands emitted notifications to external channels. Delivery
// is best-effort: a failed send is reported to the caller, which logs it, and
// never undoes the stored notification.
package delivery

import (
	"context"
	"errors"
	"time"

	"budgetwise/internal/models"
)

// Message is one notification addressed to the channels its owner enabled.
type Message struct {
	Notification *models.Notification
	// Email is the recipient address, empty when the email channel is off.
	Email string
	// Web is set when the owner wants web push delivery.
	Web bool
}

// Dispatcher delivers a message to one channel.
type Dispatcher interface {
	Deliver(ctx context.Context, msg Message) error
}

// Nop discards every message.
type Nop struct{}

// Deliver implements Dispatcher.
func (Nop) Deliver(context.Context, Message) error { return nil }

// Multi fans a message out to several dispatchers. Every dispatcher is tried
// and the failures are joined.
type Multi []Dispatcher

// Deliver implements Dispatcher.
func (m Multi) Deliver(ctx context.Context, msg Message) error {
	var errs []error
	for _, d := range m {
		if err := d.Deliver(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type timeoutDispatcher struct {
	next    Dispatcher
	timeout time.Duration
}

// WithTimeout bounds every delivery through d. A non-positive timeout returns d unchanged.
func WithTimeout(d Dispatcher, timeout time.Duration) Dispatcher {
	if timeout <= 0 {
		return d
	}
	return timeoutDispatcher{next: d, timeout: timeout}
}

// Deliver implements Dispatcher.
func (t timeoutDispatcher) Deliver(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Deliver(ctx, msg)
}
