package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spiderviz-org/spiderviz/schema"
	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// CSV HELPER — Parses CSV data into a table.Table
// ============================================================================
// Callers read the CSV from wherever it lives (file, S3, Sheets export).
// This helper converts the raw bytes into a Table using the schema: columns
// the schema classified as dimensions become formatted dimension values,
// metric columns become numbers. Cells that refuse to parse pass through
// raw — aggregation reads them as 0.
// ============================================================================

// ParseCSV parses CSV bytes into a Table using sch for column classification.
// Columns absent from the schema are silently skipped.
func ParseCSV(data []byte, sch *schema.Config) (*table.Table, error) {
	if sch == nil {
		return nil, fmt.Errorf("schema is required — use ParseCSVAuto to discover one")
	}

	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	return TableFromRows(headers, rows, sch), nil
}

// ParseCSVAuto parses CSV without a pre-existing schema: discovery runs
// first, then the rows are mapped through the discovered classification.
// The Config comes back too so callers can inspect, adjust, and reparse.
func ParseCSVAuto(data []byte, opts ...schema.DiscoverOptions) (*table.Table, *schema.Config, error) {
	sch, err := schema.DiscoverFromCSV(data, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("schema discovery failed: %w", err)
	}

	tbl, err := ParseCSV(data, sch)
	if err != nil {
		return nil, nil, err
	}
	return tbl, sch, nil
}

// TableFromRows builds a Table from pre-split rows (workbook sheets, test
// fixtures) using sch for classification. Short rows are tolerated: missing
// dimension cells group under the default key, missing metric cells read
// as 0.
func TableFromRows(headers []string, rows [][]string, sch *schema.Config) *table.Table {
	dimSlot := make(map[string]int, len(sch.Dimensions))
	for i, d := range sch.Dimensions {
		dimSlot[d.Key] = i
	}
	metSlot := make(map[string]int, len(sch.Metrics))
	for i, m := range sch.Metrics {
		metSlot[m.Key] = i
	}

	type colMapping struct {
		slot        int
		isDimension bool
		isMetric    bool
	}

	mappings := make([]colMapping, len(headers))
	for i, h := range headers {
		key := schema.KeyFor(h)
		if slot, ok := dimSlot[key]; ok {
			mappings[i] = colMapping{slot: slot, isDimension: true}
		} else if slot, ok := metSlot[key]; ok {
			mappings[i] = colMapping{slot: slot, isMetric: true}
		}
		// Unmapped columns are silently skipped
	}

	tbl := &table.Table{Name: sch.Name, Fields: sch.Fields()}

	for _, row := range rows {
		r := table.Row{
			Dimensions: make([]table.DimensionValue, len(sch.Dimensions)),
			Metrics:    make([]any, len(sch.Metrics)),
		}

		for i, m := range mappings {
			if i >= len(row) || (!m.isDimension && !m.isMetric) {
				continue
			}
			val := strings.TrimSpace(row[i])

			if m.isDimension {
				r.Dimensions[m.slot] = table.DimensionValue{Formatted: val, Raw: val}
				continue
			}
			if val == "" {
				continue // stays nil → reads as 0
			}
			// Same numeric tolerance as discovery: thousands separators drop
			if f, err := strconv.ParseFloat(strings.ReplaceAll(val, ",", ""), 64); err == nil {
				r.Metrics[m.slot] = f
			} else {
				r.Metrics[m.slot] = val
			}
		}

		tbl.Rows = append(tbl.Rows, r)
	}

	return tbl
}
