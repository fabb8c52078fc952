package panel

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/spiderviz-org/spiderviz/engine"
	"github.com/spiderviz-org/spiderviz/palette"
	"github.com/spiderviz-org/spiderviz/render"
	"github.com/spiderviz-org/spiderviz/source"
)

// ============================================================================
// PANEL — Embeddable radar panel: bootstrap + HTTP surface
// ============================================================================
// The panel ties the pieces together: a source adapter feeding tables in, a
// renderer keeping the current chart fragment, and an HTTP surface hosts
// iframe or call directly. Everything a host needs ships embedded; the only
// external fetch is the charting library itself.
// ============================================================================

// DefaultAddr is the listen address when Config.Addr is empty.
const DefaultAddr = ":8077"

const (
	stylesheetName = "spiderviz.css"
	stylesheetHref = "/assets/" + stylesheetName
	scriptHref     = "/assets/echarts.min.js"
)

//go:embed assets/spiderviz.css
var stylesheet []byte

// Config describes one panel instance.
type Config struct {
	// Addr is the HTTP listen address. Empty means DefaultAddr.
	Addr string

	// FeedURL is the host's table feed base URL. Empty means no feed —
	// tables arrive only through POST /messages.
	FeedURL string

	// AssetsHost overrides where the charting library is fetched from.
	AssetsHost string

	// FillAlpha is the dataset fill opacity, 0 meaning the default.
	FillAlpha float64

	// Title overrides the pushed table's name on the chart.
	Title string

	// ExtraHead is host-supplied markup for the page head.
	ExtraHead string
}

func (c Config) addr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return DefaultAddr
}

func (c Config) fillAlpha() float64 {
	if c.FillAlpha > 0 {
		return c.FillAlpha
	}
	return palette.DefaultFillAlpha
}

// App is a running panel: renderer, source adapter, live hub, HTTP mux.
type App struct {
	cfg      Config
	renderer *render.Renderer
	listener *source.Listener
	adapter  *source.Adapter
	hub      *hub
	mux      *http.ServeMux
	head     string

	mu     sync.RWMutex
	latest *engine.Radar
}

// New wires a panel from its config. The returned App serves immediately
// through Handler; Run adds the listen loop and the feed adapter.
func New(cfg Config) *App {
	a := &App{
		cfg:      cfg,
		hub:      newHub(),
		listener: source.NewListener(),
		mux:      http.NewServeMux(),
	}

	opts := []render.Option{render.WithFillAlpha(cfg.fillAlpha())}
	if cfg.Title != "" {
		opts = append(opts, render.WithTitle(cfg.Title))
	}
	if cfg.AssetsHost != "" {
		opts = append(opts, render.WithAssetsHost(cfg.AssetsHost))
	}
	a.renderer = render.New(opts...)

	a.adapter = source.NewAdapter(source.Config{FeedURL: cfg.FeedURL}, a.listener, a.consume)

	a.ensureStylesheet()
	a.routes()
	return a
}

// ensureStylesheet assembles the page head from the host's extra markup
// plus the panel stylesheet link. Hosts that already link spiderviz.css
// keep their copy — the injection is idempotent.
func (a *App) ensureStylesheet() {
	if a.head != "" {
		return
	}
	if strings.Contains(a.cfg.ExtraHead, stylesheetName) {
		a.head = a.cfg.ExtraHead
		log.Printf("📋 Spiderviz: stylesheet already linked — injection skipped")
		return
	}
	link := `<link rel="stylesheet" href="` + stylesheetHref + `">`
	if a.cfg.ExtraHead == "" {
		a.head = link
	} else {
		a.head = a.cfg.ExtraHead + "\n" + link
	}
	log.Printf("🔧 Spiderviz: stylesheet wired into the page head")
}

func (a *App) routes() {
	a.mux.HandleFunc("/", a.handleIndex)
	a.mux.HandleFunc("/chart", a.handleChart)
	a.mux.HandleFunc("/datasets.json", a.handleDatasets)
	a.mux.HandleFunc("/export.png", a.handleExportPNG)
	a.mux.Handle("/messages", a.listener)
	a.mux.HandleFunc("/live", a.handleLive)
	a.mux.HandleFunc(stylesheetHref, a.handleStylesheet)
	a.mux.HandleFunc(scriptHref, a.handleScript)
}

// Handler returns the panel's complete HTTP surface. Cross-origin requests
// are allowed — hosts iframe the panel from their own origins.
func (a *App) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
	})
	return c.Handler(a.mux)
}

// Status reports the adapter's subscription state.
func (a *App) Status() source.Status {
	return a.adapter.Status()
}

// Run starts the HTTP server and the feed adapter and blocks until ctx
// ends. Adapter trouble is logged, never fatal — the panel stays up on
// whatever it rendered last.
func (a *App) Run(ctx context.Context) error {
	a.ensureStylesheet()

	srv := &http.Server{Addr: a.cfg.addr(), Handler: a.Handler()}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	log.Printf("🔧 Spiderviz: panel listening on %s", a.cfg.addr())

	go func() {
		if err := a.adapter.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("⚠️ Spiderviz: adapter stopped: %v", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("panel server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("panel shutdown: %w", err)
	}
	log.Printf("✅ Spiderviz: panel stopped")
	return nil
}

// ── Handlers ────────────────────────────────────────────────────────────────

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fragment, version := a.renderer.Snapshot()
	radar := a.latestRadar()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTpl.Execute(w, pageData{
		Title:    a.pageTitle(),
		Head:     template.HTML(a.head),
		Fragment: template.HTML(fragment),
		Caption:  engine.Describe(radar),
		Note:     engine.RangeNote(radar),
		Version:  version,
	})
	if err != nil {
		log.Printf("⚠️ Spiderviz: page render: %v", err)
	}
}

// handleChart serves the bare chart fragment for hosts that splice it into
// their own markup instead of iframing the page.
func (a *App) handleChart(w http.ResponseWriter, r *http.Request) {
	fragment, version := a.renderer.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Spiderviz-Version", fmt.Sprintf("%d", version))
	w.Write(fragment)
}

// handleDatasets serves the client-side chart config dialect. Hosts that
// draw the radar themselves poll this instead of /chart. "null" means
// nothing to draw yet.
func (a *App) handleDatasets(w http.ResponseWriter, r *http.Request) {
	cfg := engine.ChartJSConfig(a.latestRadar())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		log.Printf("⚠️ Spiderviz: datasets encode: %v", err)
	}
}

func (a *App) handleLive(w http.ResponseWriter, r *http.Request) {
	a.hub.serve(w, r, a.renderer.Version())
}

func (a *App) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(stylesheet)
}

// handleScript serves the charting library through the renderer's
// once-guarded loader, so the first page view triggers the one-time fetch.
func (a *App) handleScript(w http.ResponseWriter, r *http.Request) {
	script, err := a.renderer.Script(r.Context())
	if err != nil {
		http.Error(w, "charting library unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Write(script)
}

// ── State access ────────────────────────────────────────────────────────────

func (a *App) latestRadar() *engine.Radar {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

func (a *App) pageTitle() string {
	if a.cfg.Title != "" {
		return a.cfg.Title
	}
	if radar := a.latestRadar(); radar != nil && radar.Title != "" {
		return radar.Title
	}
	return "Spiderviz"
}
