package source

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// SOURCE — Capability interface for table feeds
// ============================================================================
// A Source knows how to reach one kind of host feed. Probe checks that the
// feed answers without committing to it; Subscribe blocks, decoding frames
// and handing each table to the callback until the context ends or the feed
// drops. Variants declare what they support up front instead of being
// duck-probed at subscribe time, so detection is one ordered pass.
// ============================================================================

// Source is one way of receiving pushed tables.
type Source interface {
	// Name identifies the variant in logs.
	Name() string

	// Probe checks that the feed answers, without subscribing.
	Probe(ctx context.Context) error

	// Subscribe streams tables to deliver until ctx ends or the feed
	// closes. deliver runs in frame order and is never called after
	// Subscribe returns.
	Subscribe(ctx context.Context, deliver func(*table.Table)) error
}

// Config points the adapter at a host feed.
type Config struct {
	// FeedURL is the host base URL. http(s) schemes are rewritten to
	// ws(s) when dialing. Empty means no feed — the fallback listener
	// is used directly.
	FeedURL string

	// DialTimeout bounds each probe and dial. Zero means 5s.
	DialTimeout time.Duration

	// ReconnectDelay is the pause before re-detecting after a feed
	// drops. Zero means 3s.
	ReconnectDelay time.Duration
}

func (c Config) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return 5 * time.Second
}

func (c Config) reconnectDelay() time.Duration {
	if c.ReconnectDelay > 0 {
		return c.ReconnectDelay
	}
	return 3 * time.Second
}

// ============================================================================
// ERRORS
// ============================================================================

// ErrNoFeed reports that no feed variant answered its probe.
var ErrNoFeed = errors.New("no table feed reachable")

// ProbeError wraps a variant's probe failure with the variant name.
type ProbeError struct {
	Variant string
	Err     error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Variant, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ============================================================================
// DETECTION
// ============================================================================

// Detect probes the feed variants in order and returns the first one that
// answers. When none do — or no feed URL is configured — the fallback
// listener is returned so hosts can POST tables instead. Probe failures are
// logged, never raised.
func Detect(ctx context.Context, cfg Config, fallback *Listener) Source {
	if cfg.FeedURL == "" {
		log.Printf("🔍 Spiderviz: no feed URL configured — using %s source", fallback.Name())
		return fallback
	}
	for _, s := range Variants(cfg) {
		if err := s.Probe(ctx); err != nil {
			log.Printf("⚠️ Spiderviz: %v", &ProbeError{Variant: s.Name(), Err: err})
			continue
		}
		log.Printf("✅ Spiderviz: table feed detected — %s", s.Name())
		return s
	}
	log.Printf("⚠️ Spiderviz: %v — using %s source", ErrNoFeed, fallback.Name())
	return fallback
}
