package panel

import (
	"log"

	"github.com/spiderviz-org/spiderviz/engine"
	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// PIPELINE — one pushed table, start to finish
// ============================================================================
// The adapter delivers tables serially, so a slow render can never
// interleave two pushes: by the time the next table arrives, this one is
// aggregated, rendered, and broadcast.
// ============================================================================

// consume is the adapter's delivery callback.
func (a *App) consume(tbl *table.Table) {
	radar := engine.Aggregate(tbl, a.cfg.fillAlpha())

	// The aggregate is published even when the fragment can't be built —
	// /datasets.json and /export.png don't depend on the charting assets.
	a.mu.Lock()
	a.latest = radar
	a.mu.Unlock()

	if err := a.renderer.Render(radar); err != nil {
		log.Printf("⚠️ Spiderviz: render skipped: %v", err)
		return
	}

	_, version := a.renderer.Snapshot()
	a.hub.broadcast(version)

	log.Printf("📊 Spiderviz: push #%d — %s, %d live viewers",
		version, engine.DescribeLong(radar), a.hub.count())
	if note := engine.RangeNote(radar); note != "" {
		log.Printf("📋 Spiderviz: %s", note)
	}
}
