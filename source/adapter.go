package source

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// ADAPTER — detection, subscription, and the delivery loop
// ============================================================================
// The adapter owns the whole lifecycle: pick a source, subscribe, hand each
// table to the consumer serially. Consumers run behind a recover — a panic
// downstream must never take the host process with it. When a feed drops,
// the adapter re-detects and resubscribes; once subscribed, always
// subscribed: reconnects never flip the status back.
// ============================================================================

// Status is the adapter's subscription state.
type Status int32

const (
	Unsubscribed Status = iota
	Subscribed
)

func (s Status) String() string {
	if s == Subscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

// Adapter connects a detected source to a table consumer.
type Adapter struct {
	cfg      Config
	fallback *Listener
	handler  func(*table.Table)
	status   atomic.Int32
}

// NewAdapter wires a consumer to the feed described by cfg. fallback is the
// listener to use when no feed variant answers; the caller keeps a
// reference so it can mount the listener's HTTP side.
func NewAdapter(cfg Config, fallback *Listener, handler func(*table.Table)) *Adapter {
	return &Adapter{cfg: cfg, fallback: fallback, handler: handler}
}

// Status reports whether a table has ever been delivered.
func (a *Adapter) Status() Status {
	return Status(a.status.Load())
}

// Run detects a source, subscribes, and drains pushes until ctx ends.
// Dropped feeds are re-detected after a pause. The error is always ctx's —
// feed trouble is logged and retried, never raised.
func (a *Adapter) Run(ctx context.Context) error {
	for {
		src := Detect(ctx, a.cfg, a.fallback)
		if err := a.consume(ctx, src); err != nil && ctx.Err() == nil {
			log.Printf("⚠️ Spiderviz: %s feed dropped: %v — re-detecting in %s",
				src.Name(), err, a.cfg.reconnectDelay())
		}
		select {
		case <-time.After(a.cfg.reconnectDelay()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// consume subscribes to src and drains its pushes in arrival order. One
// goroutine reads the feed, one delivers; the buffered channel between them
// gives backpressure, so a slow consumer never interleaves two tables.
func (a *Adapter) consume(ctx context.Context, src Source) error {
	pushes := make(chan *table.Table, 16)
	done := make(chan error, 1)

	go func() {
		done <- src.Subscribe(ctx, func(t *table.Table) {
			select {
			case pushes <- t:
			case <-ctx.Done():
			}
		})
		close(pushes)
	}()

	for t := range pushes {
		a.markSubscribed()
		a.dispatch(t)
	}
	return <-done
}

// dispatch hands one table to the consumer, absorbing panics.
func (a *Adapter) dispatch(t *table.Table) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Spiderviz: table consumer panicked: %v — continuing", r)
		}
	}()
	a.handler(t)
}

func (a *Adapter) markSubscribed() {
	if a.status.CompareAndSwap(int32(Unsubscribed), int32(Subscribed)) {
		log.Printf("✅ Spiderviz: subscribed — first table delivered")
	}
}
