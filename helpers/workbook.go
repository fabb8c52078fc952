package helpers

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"github.com/spiderviz-org/spiderviz/schema"
	"github.com/spiderviz-org/spiderviz/table"
)

// ============================================================================
// WORKBOOK HELPER — XLSX sheets into tables
// ============================================================================
// Spreadsheets are where ratings actually live. ReadSheet pulls one sheet
// out of a workbook as headers + rows; the ParseSheet variants push those
// rows through the same classification pipeline as CSV.
// ============================================================================

// ReadSheet reads one sheet of an XLSX workbook. An empty sheet name selects
// the first sheet. The reader trims trailing empty cells, so rows may come
// back shorter than the header.
func ReadSheet(path, sheet string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("⚠️ Spiderviz: failed to close workbook %s: %v", path, err)
		}
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	return rows[0], rows[1:], nil
}

// ParseSheet reads a sheet and maps it through an existing schema.
func ParseSheet(path, sheet string, sch *schema.Config) (*table.Table, error) {
	if sch == nil {
		return nil, fmt.Errorf("schema is required — use ParseSheetAuto to discover one")
	}
	headers, rows, err := ReadSheet(path, sheet)
	if err != nil {
		return nil, err
	}
	return TableFromRows(headers, rows, sch), nil
}

// ParseSheetAuto reads a sheet, discovers its schema, and builds the table.
func ParseSheetAuto(path, sheet string, opts ...schema.DiscoverOptions) (*table.Table, *schema.Config, error) {
	headers, rows, err := ReadSheet(path, sheet)
	if err != nil {
		return nil, nil, err
	}

	sch, err := schema.DiscoverFromRows(headers, rows, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("schema discovery failed: %w", err)
	}
	sch.DiscoveredFrom = "XLSX"

	return TableFromRows(headers, rows, sch), sch, nil
}
