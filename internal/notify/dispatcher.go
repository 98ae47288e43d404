// Package notify delivers "report received" notifications to the external
// notification service. Delivery happens on a fixed pool of workers fed by a
// bounded queue so that request handlers never wait on the remote call.
// Failed deliveries are logged and counted; they are not retried.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petabencana/sitioss-server/internal/observability"
)

// Message is one notification: the card it concerns and the JSON body to
// deliver.
type Message struct {
	CardID string
	Body   []byte
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Dispatcher queues messages and delivers them with a worker pool.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines draining a queue of the given
// capacity. Each delivery is bounded by timeout.
func NewDispatcher(s Sender, workers, queue int, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	d := &Dispatcher{
		sender:  s,
		timeout: timeout,
		log:     log.With().Str("component", "notify").Logger(),
		queue:   make(chan Message, queue),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.loop()
	}
	return d
}

// Enqueue hands m to the workers without blocking. It returns false when the
// queue is full or the dispatcher is closed; the message is then dropped.
func (d *Dispatcher) Enqueue(m Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		observability.NotifyDispatch.WithLabelValues("dropped").Inc()
		return false
	}
	select {
	case d.queue <- m:
		return true
	default:
		observability.NotifyDispatch.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be delivered,
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for m := range d.queue {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m Message) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := d.sender.Send(ctx, m); err != nil {
		observability.NotifyDispatch.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).Str("card_id", m.CardID).Msg("notification failed")
		return
	}
	observability.NotifyDispatch.WithLabelValues("sent").Inc()
	d.log.Info().Str("card_id", m.CardID).Dur("latency", time.Since(start)).Msg("notification sent")
}
