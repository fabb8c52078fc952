package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spiderviz-org/spiderviz/engine"
	"github.com/spiderviz-org/spiderviz/palette"
)

// ============================================================================
// RENDERER TESTS
// ============================================================================

func testRadar() *engine.Radar {
	return &engine.Radar{
		Title:      "Team Health",
		AxisLabels: []string{"Quality", "Speed"},
		Datasets: []engine.Dataset{
			{Label: "Jan", Data: []float64{3, 4}, Border: "rgba(211, 218, 129, 0.9)", Fill: "rgba(211, 218, 129, 0.2)", R: 211, G: 218, B: 129},
			{Label: "Feb", Data: []float64{2, 3}, Border: "rgba(129, 190, 218, 0.9)", Fill: "rgba(129, 190, 218, 0.2)", R: 129, G: 190, B: 218},
		},
		RowCount: 4,
	}
}

func assetServer(t *testing.T, status int, payload string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/"+scriptName {
			t.Errorf("unexpected asset path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func assertFragmentContains(t *testing.T, html []byte, substrings ...string) {
	t.Helper()
	for _, s := range substrings {
		if !bytes.Contains(html, []byte(s)) {
			t.Errorf("fragment missing %q", s)
		}
	}
}

func TestRenderSnapshotSwap(t *testing.T) {
	ts, _ := assetServer(t, http.StatusOK, "// echarts")
	r := New(WithAssetsHost(ts.URL + "/"))

	html, version := r.Snapshot()
	if version != 0 {
		t.Errorf("initial version: got %d", version)
	}
	assertFragmentContains(t, html, "spiderviz-empty")

	if err := r.Render(testRadar()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	html, version = r.Snapshot()
	if version != 1 {
		t.Errorf("version after render: got %d", version)
	}
	assertFragmentContains(t, html,
		"echarts.init",
		"Quality", "Speed",
		"Jan", "Feb",
		"rgba(211, 218, 129, 0.9)",
		"rgba(129, 190, 218, 0.2)",
		`"max":5`,
		`"splitNumber":5`,
		`"shape":"circle"`,
		"Team Health",
	)

	if err := r.Render(testRadar()); err != nil {
		t.Fatalf("second Render failed: %v", err)
	}
	if got := r.Version(); got != 2 {
		t.Errorf("every rebuild bumps the version: got %d", got)
	}
}

func TestRenderEmptyRadar(t *testing.T) {
	ts, hits := assetServer(t, http.StatusOK, "// echarts")
	r := New(WithAssetsHost(ts.URL + "/"))

	if err := r.Render(&engine.Radar{AxisLabels: []string{"Quality"}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html, version := r.Snapshot()
	assertFragmentContains(t, html, "spiderviz-empty")
	if version != 1 {
		t.Errorf("placeholder swap still bumps version: got %d", version)
	}

	if err := r.Render(nil); err != nil {
		t.Fatalf("nil radar should not error: %v", err)
	}

	// No datasets → the library was never needed
	if got := atomic.LoadInt32(hits); got != 0 {
		t.Errorf("empty renders should not trigger the assets load, got %d fetches", got)
	}
}

func TestRenderTitleOverride(t *testing.T) {
	ts, _ := assetServer(t, http.StatusOK, "// echarts")
	r := New(WithAssetsHost(ts.URL+"/"), WithTitle("Quarterly Review"))

	if err := r.Render(testRadar()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html, _ := r.Snapshot()
	assertFragmentContains(t, html, "Quarterly Review")
	if bytes.Contains(html, []byte(`"text":"Team Health"`)) {
		t.Error("option title should win over the table name")
	}
}

func TestRenderColorFallback(t *testing.T) {
	ts, _ := assetServer(t, http.StatusOK, "// echarts")
	r := New(WithAssetsHost(ts.URL+"/"), WithFillAlpha(0.35))

	radar := &engine.Radar{
		AxisLabels: []string{"Focus"},
		Datasets:   []engine.Dataset{{Label: "Atlas", Data: []float64{4}}},
	}
	if err := r.Render(radar); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	pair := palette.ColorFor("Atlas", 0.35)
	html, _ := r.Snapshot()
	assertFragmentContains(t, html, pair.Border, pair.Fill)
}

func TestAssetsLoadOnce(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(30 * time.Millisecond)
		fmt.Fprint(w, "// echarts")
	}))
	t.Cleanup(ts.Close)

	r := New(WithAssetsHost(ts.URL + "/"))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.EnsureAssets(context.Background()); err != nil {
				t.Errorf("EnsureAssets: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("concurrent callers must share one load, got %d fetches", got)
	}
}

func TestAssetsFailureNoRetry(t *testing.T) {
	ts, hits := assetServer(t, http.StatusInternalServerError, "boom")
	r := New(WithAssetsHost(ts.URL + "/"))

	err := r.Render(testRadar())
	if !errors.Is(err, ErrAssetsUnavailable) {
		t.Fatalf("want ErrAssetsUnavailable, got %v", err)
	}

	html, version := r.Snapshot()
	assertFragmentContains(t, html, "spiderviz-empty")
	if version != 0 {
		t.Errorf("failed render must not touch the snapshot, version %d", version)
	}

	// Second render reuses the stored failure
	if err := r.Render(testRadar()); !errors.Is(err, ErrAssetsUnavailable) {
		t.Fatalf("second render: want ErrAssetsUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 1 {
		t.Errorf("a failed load is never retried, got %d fetches", got)
	}
}

func TestScript(t *testing.T) {
	ts, _ := assetServer(t, http.StatusOK, "// the echarts payload")
	r := New(WithAssetsHost(ts.URL + "/"))

	script, err := r.Script(context.Background())
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	if string(script) != "// the echarts payload" {
		t.Errorf("script payload: got %q", script)
	}

	bad := New(WithAssetsHost("http://127.0.0.1:1/"))
	if _, err := bad.Script(context.Background()); !errors.Is(err, ErrAssetsUnavailable) {
		t.Errorf("unreachable host: want ErrAssetsUnavailable, got %v", err)
	}
}
