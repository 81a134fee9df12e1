package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dimitrije/hackteams-api/internal/metrics"
	"github.com/hashicorp/go-multierror"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	QueueSize int
	Workers   int
}

// Dispatcher queues notifications and fans them out to its channels from a
// fixed pool of workers. When the queue is full new notifications are
// dropped.
type Dispatcher struct {
	channels []Channel
	queue    chan Notification
	workers  int
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
	group  *errgroup.Group
}

func NewDispatcher(opts Options, log *zap.Logger, m *metrics.Metrics, channels ...Channel) *Dispatcher {
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		channels: channels,
		queue:    make(chan Notification, opts.QueueSize),
		workers:  opts.Workers,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Start launches the workers. Deliveries use ctx, so cancel it only after
// Close has drained the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for n := range d.queue {
				if err := d.deliver(ctx, n); err != nil {
					d.log.Warn("notification delivery failed",
						zap.String("id", n.ID),
						zap.String("template", string(n.Template)),
						zap.String("recipient", n.Recipient.UserID.String()),
						zap.Error(err))
				}
			}
			return nil
		})
	}
	d.mu.Lock()
	d.group = g
	d.mu.Unlock()
}

func (d *Dispatcher) Notify(_ context.Context, n Notification) {
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notifier closed, dropping notification", zap.String("template", string(n.Template)))
		d.metrics.ObserveNotification("queue", "dropped")
		return
	}
	select {
	case d.queue <- n:
	default:
		d.log.Warn("notification queue full, dropping notification",
			zap.String("id", n.ID),
			zap.String("template", string(n.Template)))
		d.metrics.ObserveNotification("queue", "dropped")
	}
}

// Close stops accepting notifications and waits for queued ones to be
// delivered.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	g := d.group
	d.mu.Unlock()

	if g == nil {
		return nil
	}
	return g.Wait()
}

// deliver hands n to every channel and returns the combined failures.
// Skipped channels are not failures.
func (d *Dispatcher) deliver(ctx context.Context, n Notification) error {
	var result *multierror.Error
	for _, ch := range d.channels {
		err := ch.Deliver(ctx, n)
		switch {
		case err == nil:
			d.metrics.ObserveNotification(ch.Name(), "sent")
		case errors.Is(err, ErrSkipped):
			d.metrics.ObserveNotification(ch.Name(), "skipped")
		default:
			d.metrics.ObserveNotification(ch.Name(), "failed")
			result = multierror.Append(result, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
