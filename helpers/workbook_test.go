package helpers

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ============================================================================
// WORKBOOK TESTS — write with excelize, read back through the helpers
// ============================================================================

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "scores.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestReadSheetDefault(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Team", "Focus", "Effort"},
		{"Atlas", 4, 3},
		{"Borealis", 3, 5},
	})

	headers, rows, err := ReadSheet(path, "")
	if err != nil {
		t.Fatalf("ReadSheet failed: %v", err)
	}

	if len(headers) != 3 || headers[0] != "Team" {
		t.Errorf("headers: got %v", headers)
	}
	if len(rows) != 2 {
		t.Fatalf("row count: got %d", len(rows))
	}
	if rows[0][1] != "4" {
		t.Errorf("cells come back as formatted strings, got %q", rows[0][1])
	}
}

func TestReadSheetByName(t *testing.T) {
	f := excelize.NewFile()
	if _, err := f.NewSheet("Ratings"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := f.SetSheetRow("Ratings", "A1", &[]interface{}{"Team", "Score"}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SetSheetRow("Ratings", "A2", &[]interface{}{"Atlas", 4}); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}

	path := filepath.Join(t.TempDir(), "multi.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	headers, rows, err := ReadSheet(path, "Ratings")
	if err != nil {
		t.Fatalf("ReadSheet failed: %v", err)
	}
	if headers[1] != "Score" || rows[0][0] != "Atlas" {
		t.Errorf("named sheet content: headers %v, rows %v", headers, rows)
	}

	// The untouched default sheet reads as empty
	if _, _, err := ReadSheet(path, ""); err == nil {
		t.Error("empty first sheet should error")
	}
}

func TestReadSheetMissingFile(t *testing.T) {
	if _, _, err := ReadSheet(filepath.Join(t.TempDir(), "nope.xlsx"), ""); err == nil {
		t.Error("missing workbook should error")
	}
}

func TestParseSheetAuto(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Team", "Focus", "Effort"},
		{"Atlas", 4, 3},
		{"Borealis", 3, 5},
		{"Atlas", 5, 4},
		{"Cygnus", 2, 2},
	})

	tbl, cfg, err := ParseSheetAuto(path, "")
	if err != nil {
		t.Fatalf("ParseSheetAuto failed: %v", err)
	}

	if cfg.DiscoveredFrom != "XLSX" {
		t.Errorf("discovered from: got %q", cfg.DiscoveredFrom)
	}
	if got := cfg.DimensionKeys(); len(got) != 1 || got[0] != "team" {
		t.Errorf("dimensions: got %v", got)
	}
	if got := cfg.MetricKeys(); len(got) != 2 || got[0] != "focus" {
		t.Errorf("metrics: got %v", got)
	}
	if len(tbl.Rows) != 4 {
		t.Fatalf("row count: got %d", len(tbl.Rows))
	}
	if tbl.Rows[0].Metrics[0] != 4.0 {
		t.Errorf("focus cell: got %v", tbl.Rows[0].Metrics[0])
	}
}

func TestParseSheetWithSchema(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Month", "Quality", "Speed"},
		{"Jan", 4, 5},
	})

	tbl, err := ParseSheet(path, "", healthSchema())
	if err != nil {
		t.Fatalf("ParseSheet failed: %v", err)
	}
	if tbl.Name != "Team Health" {
		t.Errorf("table name should come from the schema, got %q", tbl.Name)
	}
	if tbl.Rows[0].Dimensions[0].Formatted != "Jan" {
		t.Errorf("dimension cell: got %q", tbl.Rows[0].Dimensions[0].Formatted)
	}

	if _, err := ParseSheet(path, "", nil); err == nil {
		t.Error("nil schema should error")
	}
}
