package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// LISTENER — POSTed-message fallback
// ============================================================================
// When no feed answers, hosts can forward their message bus to the panel
// wholesale. Only envelopes tagged for this panel carry a table; everything
// else is acknowledged and dropped, so hosts never have to filter on their
// side. Setup cannot fail, which is the point of a fallback.
// ============================================================================

// Messages bigger than this are refused outright.
const maxMessageBytes = 8 << 20

// listenerEnvelope is the POSTed message shape.
type listenerEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Listener accepts tables over plain HTTP POSTs. It is both a Source and an
// http.Handler; the panel mounts it whether or not it wins detection.
type Listener struct {
	mu      sync.RWMutex
	deliver func(*table.Table)
}

// NewListener returns an unmounted, unsubscribed listener.
func NewListener() *Listener {
	return &Listener{}
}

func (l *Listener) Name() string { return "listener" }

// Probe always succeeds — the fallback cannot fail setup.
func (l *Listener) Probe(ctx context.Context) error { return nil }

// Subscribe attaches deliver and blocks until ctx ends. Messages POSTed
// while no subscriber is attached are acknowledged and dropped.
func (l *Listener) Subscribe(ctx context.Context, deliver func(*table.Table)) error {
	l.mu.Lock()
	l.deliver = deliver
	l.mu.Unlock()

	<-ctx.Done()

	l.mu.Lock()
	l.deliver = nil
	l.mu.Unlock()
	return ctx.Err()
}

// ServeHTTP handles one POSTed envelope. Non-table envelopes get 202 and
// are ignored; delivered tables get 204.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "unreadable message body", http.StatusBadRequest)
		return
	}
	t, err := l.decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if t == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// The lock is held through the delivery so Subscribe cannot return
	// while a table is still being handed off.
	l.mu.RLock()
	deliver := l.deliver
	if deliver == nil {
		l.mu.RUnlock()
		w.WriteHeader(http.StatusAccepted)
		return
	}
	deliver(t)
	l.mu.RUnlock()
	w.WriteHeader(http.StatusNoContent)
}

// decode parses one envelope, nil for envelopes addressed elsewhere.
func (l *Listener) decode(body []byte) (*table.Table, error) {
	var env listenerEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if env.Type != "looker_studio" || len(env.Data) == 0 {
		return nil, nil
	}
	var t table.Table
	if err := json.Unmarshal(env.Data, &t); err != nil {
		return nil, fmt.Errorf("table payload: %w", err)
	}
	return &t, nil
}
