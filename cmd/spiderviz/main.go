// Package main provides the CLI entry point for spiderviz.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spiderviz-org/spiderviz/engine"
	"github.com/spiderviz-org/spiderviz/helpers"
	"github.com/spiderviz-org/spiderviz/palette"
	"github.com/spiderviz-org/spiderviz/panel"
	"github.com/spiderviz-org/spiderviz/render"
	"github.com/spiderviz-org/spiderviz/schema"
	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// SPIDERVIZ CLI — serve the live panel, or render files one-shot
// ============================================================================

const version = "0.1.0"

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("⚠️ Spiderviz: .env not loaded: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:     "spiderviz",
		Short:   "Embeddable radar-chart panel for pushed tables",
		Version: version,
		Long: `Spiderviz renders pushed tables as radar charts on a fixed 0-5 scale.

Run "spiderviz serve" for the live panel, or render a CSV/XLSX file
one-shot with "spiderviz render". Column roles are discovered
automatically and can be overridden per run.`,
	}
	rootCmd.AddCommand(serveCmd(), renderCmd(), discoverCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ── serve ───────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	var cfg panel.Config
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the radar panel service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return panel.New(cfg).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", envOr("SPIDERVIZ_ADDR", panel.DefaultAddr), "HTTP listen address")
	cmd.Flags().StringVar(&cfg.FeedURL, "feed", envOr("SPIDERVIZ_FEED_URL", ""), "Host table feed base URL (empty: POST /messages only)")
	cmd.Flags().StringVar(&cfg.AssetsHost, "assets-host", envOr("SPIDERVIZ_ASSETS_HOST", ""), "Charting assets host override")
	cmd.Flags().Float64Var(&cfg.FillAlpha, "fill-alpha", envFloat("SPIDERVIZ_FILL_ALPHA", palette.DefaultFillAlpha), "Dataset fill opacity")
	cmd.Flags().StringVar(&cfg.Title, "title", envOr("SPIDERVIZ_TITLE", ""), "Chart title override")
	cmd.Flags().StringVar(&cfg.ExtraHead, "extra-head", envOr("SPIDERVIZ_EXTRA_HEAD", ""), "Extra markup for the panel page head")
	return cmd
}

// ── render ──────────────────────────────────────────────────────────────────

func renderCmd() *cobra.Command {
	var (
		out        string
		pngOut     string
		sheet      string
		title      string
		assetsHost string
		fillAlpha  float64
		asDim      []string
		asMetric   []string
		renames    []string
		drops      []string
	)
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a CSV or XLSX file to a standalone radar page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			sch, err := loadSchema(path, sheet)
			if err != nil {
				return fmt.Errorf("schema discovery failed: %w", err)
			}
			log.Printf("🔍 Spiderviz: %s — %d dimensions, %d metrics, %d skipped",
				sch.Name, len(sch.Dimensions), len(sch.Metrics), len(sch.SkippedColumns))

			adj, err := adjustmentsFrom(asDim, asMetric, drops, renames)
			if err != nil {
				return err
			}
			if !adj.Empty() {
				sch = sch.Adjust(adj)
			}

			tbl, err := loadTable(path, sheet, sch)
			if err != nil {
				return fmt.Errorf("parse failed: %w", err)
			}

			radar := engine.Aggregate(tbl, fillAlpha)
			if radar.Empty() {
				return fmt.Errorf("nothing to draw — no metric columns in %s", path)
			}
			log.Printf("📊 Spiderviz: %s", engine.DescribeLong(radar))

			opts := []render.Option{render.WithFillAlpha(fillAlpha)}
			if title != "" {
				opts = append(opts, render.WithTitle(title))
			}
			if assetsHost != "" {
				opts = append(opts, render.WithAssetsHost(assetsHost))
			}
			rend := render.New(opts...)
			if err := rend.Render(radar); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
			fragment, _ := rend.Snapshot()

			if out == "" {
				out = strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
			}
			page := standalonePage(pageTitle(title, radar), hostOrDefault(assetsHost), fragment)
			if err := os.WriteFile(out, page, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Printf("📄 Spiderviz: radar written to %s", out)

			if pngOut != "" {
				if err := writePNGFile(pngOut, radar, fillAlpha, title); err != nil {
					return err
				}
				log.Printf("📄 Spiderviz: PNG written to %s", pngOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output HTML path (default: input name with .html)")
	cmd.Flags().StringVar(&pngOut, "png", "", "Also export a PNG to this path")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet name (default: first sheet)")
	cmd.Flags().StringVar(&title, "title", "", "Chart title override")
	cmd.Flags().StringVar(&assetsHost, "assets-host", envOr("SPIDERVIZ_ASSETS_HOST", ""), "Charting assets host override")
	cmd.Flags().Float64Var(&fillAlpha, "fill-alpha", palette.DefaultFillAlpha, "Dataset fill opacity")
	cmd.Flags().StringSliceVar(&asDim, "as-dim", nil, "Treat these columns as dimensions")
	cmd.Flags().StringSliceVar(&asMetric, "as-metric", nil, "Treat these columns as metrics")
	cmd.Flags().StringSliceVar(&renames, "rename", nil, "Rename columns, OLD=NEW")
	cmd.Flags().StringSliceVar(&drops, "drop", nil, "Drop these columns")
	return cmd
}

// ── discover ────────────────────────────────────────────────────────────────

func discoverCmd() *cobra.Command {
	var (
		sheet  string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "discover FILE",
		Short: "Print the discovered column classification as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(args[0], sheet)
			if err != nil {
				return fmt.Errorf("schema discovery failed: %w", err)
			}
			var outJSON []byte
			if pretty {
				outJSON, err = json.MarshalIndent(sch, "", "  ")
			} else {
				outJSON, err = json.Marshal(sch)
			}
			if err != nil {
				return err
			}
			fmt.Println(string(outJSON))
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet name (default: first sheet)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print the JSON")
	return cmd
}

// ============================================================================
// FILE LOADING — CSV by content, workbooks by extension
// ============================================================================

func isWorkbook(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

func loadSchema(path, sheet string) (*schema.Config, error) {
	if isWorkbook(path) {
		headers, rows, err := helpers.ReadSheet(path, sheet)
		if err != nil {
			return nil, err
		}
		sch, err := schema.DiscoverFromRows(headers, rows)
		if err != nil {
			return nil, err
		}
		sch.DiscoveredFrom = "XLSX"
		return sch, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.DiscoverFromCSV(data)
}

func loadTable(path, sheet string, sch *schema.Config) (*table.Table, error) {
	if isWorkbook(path) {
		headers, rows, err := helpers.ReadSheet(path, sheet)
		if err != nil {
			return nil, err
		}
		return helpers.TableFromRows(headers, rows, sch), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return helpers.ParseCSV(data, sch)
}

// ============================================================================
// RENDER OUTPUT
// ============================================================================

func standalonePage(title, assetsHost string, fragment []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "<script src=%q></script>\n", assetsHost+"echarts.min.js")
	b.WriteString("</head>\n<body>\n")
	b.Write(fragment)
	b.WriteString("\n</body>\n</html>\n")
	return b.Bytes()
}

func writePNGFile(path string, radar *engine.Radar, fillAlpha float64, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := panel.WriteRadarPNG(f, radar, fillAlpha, title); err != nil {
		return fmt.Errorf("png export: %w", err)
	}
	return nil
}

func pageTitle(override string, radar *engine.Radar) string {
	if override != "" {
		return override
	}
	if radar.Title != "" {
		return radar.Title
	}
	return "Spiderviz"
}

func hostOrDefault(assetsHost string) string {
	if assetsHost != "" {
		return assetsHost
	}
	return render.DefaultAssetsHost
}

// ============================================================================
// ADJUSTMENT FLAGS
// ============================================================================

func adjustmentsFrom(asDim, asMetric, drops, renames []string) (schema.Adjustments, error) {
	adj := schema.Adjustments{AsDimension: asDim, AsMetric: asMetric, Drop: drops}
	if len(renames) == 0 {
		return adj, nil
	}
	adj.Rename = make(map[string]string, len(renames))
	for _, r := range renames {
		from, to, ok := strings.Cut(r, "=")
		if !ok || from == "" || to == "" {
			return adj, fmt.Errorf("--rename %q: want OLD=NEW", r)
		}
		adj.Rename[from] = to
	}
	return adj, nil
}

// ============================================================================
// ENVIRONMENT FALLBACKS
// ============================================================================

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("⚠️ Spiderviz: %s=%q is not a number — ignored", key, v)
		return fallback
	}
	return f
}
