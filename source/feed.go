package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// FEED — WebSocket feed variants
// ============================================================================
// Hosts have shipped three shapes of the same stream. The primary protocol
// wraps each table in an envelope frame so heartbeats and table pushes share
// one socket; the legacy endpoint predates the envelope and sends bare
// tables; some hosts renamed the primary endpoint without versioning it.
// ============================================================================

// Variants returns the known feed variants in probe order.
func Variants(cfg Config) []Source {
	return []Source{
		&feed{name: "primary", path: "/api/v2/tables/stream", envelope: true, cfg: cfg},
		&feed{name: "legacy", path: "/api/v1/subscribe", envelope: false, cfg: cfg},
		&feed{name: "renamed", path: "/tables/stream", envelope: true, cfg: cfg},
	}
}

// feed is one WebSocket feed variant.
type feed struct {
	name     string
	path     string
	envelope bool
	cfg      Config
}

// envelopeFrame is the primary protocol's wrapper. Frames whose type is not
// "table" (heartbeats, host chatter) are skipped without logging.
type envelopeFrame struct {
	Type  string          `json:"type"`
	Table json.RawMessage `json:"table"`
}

func (f *feed) Name() string { return f.name }

// Probe dials the variant's endpoint and hangs up. A completed handshake is
// the only signal we need — frame shape is this variant's to assume.
func (f *feed) Probe(ctx context.Context) error {
	target, err := f.url()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.dialTimeout())
	defer cancel()
	conn, _, err := f.dialer().DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	return conn.Close()
}

// Subscribe dials the endpoint and decodes frames until ctx ends or the
// host closes the socket. A normal close returns nil — the caller decides
// whether to reconnect.
func (f *feed) Subscribe(ctx context.Context, deliver func(*table.Table)) error {
	target, err := f.url()
	if err != nil {
		return err
	}
	conn, _, err := f.dialer().DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	// ReadMessage has no context; closing the socket is how ctx reaches it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log.Printf("🔧 Spiderviz: streaming tables from %s (%s)", target, f.name)
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read %s: %w", f.name, err)
		}
		t, err := f.decode(frame)
		if err != nil {
			log.Printf("⚠️ Spiderviz: %s frame dropped: %v", f.name, err)
			continue
		}
		if t == nil {
			continue
		}
		deliver(t)
	}
}

// decode parses one frame into a table, nil for non-table frames.
func (f *feed) decode(frame []byte) (*table.Table, error) {
	payload := frame
	if f.envelope {
		var env envelopeFrame
		if err := json.Unmarshal(frame, &env); err != nil {
			return nil, fmt.Errorf("envelope: %w", err)
		}
		if env.Type != "table" || len(env.Table) == 0 {
			return nil, nil
		}
		payload = env.Table
	}
	var t table.Table
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	return &t, nil
}

func (f *feed) url() (string, error) {
	u, err := url.Parse(f.cfg.FeedURL)
	if err != nil {
		return "", fmt.Errorf("feed URL %q: %w", f.cfg.FeedURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("feed URL %q: unsupported scheme %q", f.cfg.FeedURL, u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + f.path
	return u.String(), nil
}

func (f *feed) dialer() *websocket.Dialer {
	return &websocket.Dialer{HandshakeTimeout: f.cfg.dialTimeout()}
}
