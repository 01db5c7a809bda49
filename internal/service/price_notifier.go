package service

import (
	"context"
	"log/slog"
	"net/mail"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/catalogops/priced-catalog-service/internal/observability"
)

// PriceChangeEvent describes a committed price change on a product.
type PriceChangeEvent struct {
	ProductID   uint
	ProductName string
	OldPrice    decimal.Decimal
	NewPrice    decimal.Decimal
	Recipient   string
}

// PriceChangeDispatcher accepts price-change events for asynchronous,
// best-effort delivery. Dispatch must never block and must never surface a
// delivery failure to the caller.
type PriceChangeDispatcher interface {
	Dispatch(ev PriceChangeEvent) bool
}

// PriceChangeSender performs the actual delivery of one event.
type PriceChangeSender interface {
	SendPriceChange(ctx context.Context, ev PriceChangeEvent) error
}

// LogPriceChangeSender writes the notification to the log. Stands in for a
// mail transport in development.
type LogPriceChangeSender struct {
	logger *slog.Logger
}

func NewLogPriceChangeSender(logger *slog.Logger) *LogPriceChangeSender {
	return &LogPriceChangeSender{logger: logger}
}

func (s *LogPriceChangeSender) SendPriceChange(ctx context.Context, ev PriceChangeEvent) error {
	s.logger.InfoContext(ctx, "price change notification",
		"product_id", ev.ProductID,
		"product_name", ev.ProductName,
		"old_price", ev.OldPrice.StringFixed(2),
		"new_price", ev.NewPrice.StringFixed(2),
		"recipient", ev.Recipient,
	)
	return nil
}

// QueuedPriceChangeDispatcher buffers events on a bounded channel and
// delivers them from a single background worker. A full queue drops the
// event with an error log; enqueue never blocks the mutation path.
type QueuedPriceChangeDispatcher struct {
	sender      PriceChangeSender
	logger      *slog.Logger
	queue       chan PriceChangeEvent
	done        chan struct{}
	startOnce   sync.Once
	closeOnce   sync.Once
	sendTimeout time.Duration

	// mu guards closed so no enqueue can race the channel close.
	mu     sync.RWMutex
	closed bool
}

func NewQueuedPriceChangeDispatcher(sender PriceChangeSender, queueSize int, logger *slog.Logger) *QueuedPriceChangeDispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &QueuedPriceChangeDispatcher{
		sender:      sender,
		logger:      logger,
		queue:       make(chan PriceChangeEvent, queueSize),
		done:        make(chan struct{}),
		sendTimeout: 10 * time.Second,
	}
}

// Start launches the delivery worker. Safe to call once; subsequent calls
// are no-ops.
func (d *QueuedPriceChangeDispatcher) Start() {
	d.startOnce.Do(func() {
		go d.run()
	})
}

func (d *QueuedPriceChangeDispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		if err := d.sender.SendPriceChange(ctx, ev); err != nil {
			d.logger.Error("failed to send price change notification",
				"product_id", ev.ProductID, "error", err)
			observability.RecordNotification(ctx, "deliver", "error")
		} else {
			observability.RecordNotification(ctx, "deliver", "success")
		}
		cancel()
	}
}

// Dispatch validates the recipient syntax and enqueues the event. A
// malformed recipient is logged but the delivery attempt still proceeds.
// Returns false when the event was dropped because the queue is full or
// the dispatcher has been closed.
func (d *QueuedPriceChangeDispatcher) Dispatch(ev PriceChangeEvent) bool {
	ctx := context.Background()
	if _, err := mail.ParseAddress(ev.Recipient); err != nil {
		d.logger.Error("invalid email address for price change notification",
			"recipient", ev.Recipient, "error", err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Error("price change notification dropped, dispatcher closed",
			"product_id", ev.ProductID)
		observability.RecordNotification(ctx, "enqueue", "closed")
		return false
	}

	observability.RecordNotifyQueueDepth(ctx, len(d.queue))
	select {
	case d.queue <- ev:
		observability.RecordNotification(ctx, "enqueue", "success")
		return true
	default:
		d.logger.Error("price change notification dropped, queue full",
			"product_id", ev.ProductID, "queue_size", cap(d.queue))
		observability.RecordNotification(ctx, "enqueue", "dropped")
		return false
	}
}

// Close stops intake and waits for the worker to drain, up to the timeout.
func (d *QueuedPriceChangeDispatcher) Close(timeout time.Duration) {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.queue)
	})
	select {
	case <-d.done:
	case <-time.After(timeout):
		d.logger.Warn("price notification queue drain timed out", "timeout", timeout.String())
	}
}
