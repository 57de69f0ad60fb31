package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 100
	defaultSendTimeout = 10 * time.Second
)

// Notifier accepts messages for asynchronous delivery.
type Notifier interface {
	Enqueue(msg Message) bool
}

// Dispatcher delivers queued messages on a single background worker.
// Delivery failures are logged and never reach the caller.
type Dispatcher struct {
	mailer      Mailer
	logger      *slog.Logger
	sendTimeout time.Duration

	queue  chan Message
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize sets how many messages may wait for delivery.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Message, n)
		}
	}
}

// WithSendTimeout bounds each call to the mailer.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// NewDispatcher starts the delivery worker.
func NewDispatcher(mailer Mailer, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		mailer:      mailer,
		logger:      logger,
		sendTimeout: defaultSendTimeout,
		queue:       make(chan Message, defaultQueueSize),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	go d.worker()

	return d
}

// Enqueue hands msg to the worker without blocking. It reports false when
// the message was dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher closed, email dropped", slog.String("to", msg.To), slog.String("subject", msg.Subject))
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn("email queue full, email dropped", slog.String("to", msg.To), slog.String("subject", msg.Subject))
		return false
	}
}

// Close stops intake and waits until queued messages are delivered or ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.Error("failed to send email",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()),
		)
		return
	}
	d.logger.Debug("email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
}
