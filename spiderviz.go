// Package spiderviz provides embeddable radar ("spider") chart panels
// for pushed table feeds.
//
// Usage:
//
//	import "github.com/spiderviz-org/spiderviz/panel"
//
//	app := panel.New(panel.Config{
//	    Addr:    ":8080",
//	    FeedURL: "ws://host.example/api/v2/tables/stream",
//	})
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// A host pushes tables (dimension + metric fields, typed rows); the panel
// groups rows into datasets by the first dimension, averages each metric,
// assigns each dataset a deterministic pastel color from its label, and
// rebuilds a radar chart on a fixed 0-5 scale.
//
// The panel never calls back into the host — data flows one way, and a
// broken feed or a failed render is logged and contained, never fatal.
package spiderviz
