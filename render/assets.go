package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// ============================================================================
// ASSETS LOADER — One-Time Charting Library Load
// ============================================================================
//
// The panel page needs the echarts script. It is fetched lazily, exactly
// once: the first render (or an explicit EnsureAssets call) triggers the
// load, concurrent callers share that single in-flight fetch, and the
// outcome — payload or error — is kept for the life of the renderer. A
// failed load is never retried; the failure is logged here and every later
// render returns the stored error, so the chart quietly stays empty.
// ============================================================================

// ErrAssetsUnavailable reports that the one-time charting library load
// failed. Everything wrapping it means "no chart until restart".
var ErrAssetsUnavailable = errors.New("charting assets unavailable")

// DefaultAssetsHost is where go-echarts publishes its bundled assets.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

const scriptName = "echarts.min.js"

type assetLoader struct {
	host   string
	client *http.Client

	once   sync.Once
	script []byte
	err    error
}

func newAssetLoader(host string) *assetLoader {
	return &assetLoader{
		host:   host,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// ensure performs the one-time load. Safe for concurrent use; every caller
// gets the same stored outcome.
func (l *assetLoader) ensure(ctx context.Context) error {
	l.once.Do(func() {
		url := l.host + scriptName
		log.Printf("🔧 Spiderviz: fetching charting library from %s", url)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			l.err = fmt.Errorf("%w: building request: %v", ErrAssetsUnavailable, err)
			log.Printf("⚠️ Spiderviz: charting library load failed: %v — charts stay empty", l.err)
			return
		}

		resp, err := l.client.Do(req)
		if err != nil {
			l.err = fmt.Errorf("%w: %v", ErrAssetsUnavailable, err)
			log.Printf("⚠️ Spiderviz: charting library load failed: %v — charts stay empty", l.err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			l.err = fmt.Errorf("%w: %s returned %d", ErrAssetsUnavailable, url, resp.StatusCode)
			log.Printf("⚠️ Spiderviz: charting library load failed: %v — charts stay empty", l.err)
			return
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			l.err = fmt.Errorf("%w: reading body: %v", ErrAssetsUnavailable, err)
			log.Printf("⚠️ Spiderviz: charting library load failed: %v — charts stay empty", l.err)
			return
		}

		l.script = body
		log.Printf("✅ Spiderviz: charting library loaded (%d bytes)", len(body))
	})
	return l.err
}
