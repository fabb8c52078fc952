package schema

import (
	"encoding/json"
	"fmt"
	"testing"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Sprint retrospective scores — the panel's home turf: 1-5 ratings.
var retroCSV = []byte(`Ticket,Sprint,Team,Communication,Delivery,Quality,Ownership,Velocity,Retro Notes
RET-101,Sprint 15,Atlas,4,3,4,5,17.5,Standups ran long all week
RET-102,Sprint 15,Borealis,3,4,3,4,21.0,Demo went well
RET-103,Sprint 15,Cygnus,5,4,4,4,15.5,Pairing helped onboarding
RET-104,Sprint 16,Atlas,4,4,4,5,19.0,Fewer interruptions this time
RET-105,Sprint 16,Borealis,2,3,3,3,18.5,Release was rocky
RET-106,Sprint 16,Cygnus,4,5,4,4,16.0,Scope held steady
RET-107,Sprint 17,Atlas,5,4,5,5,20.5,Best sprint so far
RET-108,Sprint 17,Borealis,3,3,4,4,22.0,Too many handoffs
RET-109,Sprint 17,Cygnus,4,4,4,5,17.0,Test flakes fixed
RET-110,Sprint 18,Atlas,4,5,4,4,18.0,New hire ramping fast
RET-111,Sprint 18,Borealis,3,4,3,4,19.5,Backlog grooming skipped
RET-112,Sprint 18,Cygnus,5,5,5,5,16.5,Zero rollbacks
`)

// Restaurant branch ratings with an out-of-scale money column.
var ratingsCSV = []byte(`Branch,Month,Food,Service,Ambience,Value,Revenue
Downtown,Jan-2026,4,5,4,3,48200.50
Riverside,Jan-2026,5,4,5,4,36100.00
Downtown,Feb-2026,4,4,4,3,45800.25
Riverside,Feb-2026,5,5,5,4,38950.75
Downtown,Mar-2026,3,4,4,3,44100.00
Riverside,Mar-2026,5,4,5,5,41200.50
`)

func TestDiscoverRetroCSV(t *testing.T) {
	config, err := DiscoverFromCSV(retroCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	// Print for visual inspection
	pretty, _ := json.MarshalIndent(config, "", "  ")
	fmt.Printf("=== RETRO SCHEMA ===\n%s\n\n", string(pretty))

	dimKeys := config.DimensionKeys()
	assertContains(t, dimKeys, "sprint", "Sprint should be a dimension")
	assertContains(t, dimKeys, "team", "Team should be a dimension")

	metKeys := config.MetricKeys()
	assertContains(t, metKeys, "communication", "Communication should be a metric")
	assertContains(t, metKeys, "delivery", "Delivery should be a metric")
	assertContains(t, metKeys, "quality", "Quality should be a metric")
	assertContains(t, metKeys, "ownership", "Ownership should be a metric")
	assertContains(t, metKeys, "velocity", "Velocity should be a metric")

	// Scale fitting: 1-5 scores fit, velocity does not
	for _, m := range config.Metrics {
		switch m.Key {
		case "communication", "delivery", "quality", "ownership":
			if !m.FitsScale {
				t.Errorf("%s should fit the 0-5 scale (min %v, max %v)", m.Key, m.MinSeen, m.MaxSeen)
			}
		case "velocity":
			if m.FitsScale {
				t.Error("velocity should not fit the 0-5 scale")
			}
		}
	}

	// Skipped columns: unique ID and unique free text
	skippedNames := make([]string, len(config.SkippedColumns))
	for i, s := range config.SkippedColumns {
		skippedNames[i] = s.Column
	}
	assertContains(t, skippedNames, "Ticket", "Ticket should be skipped (unique ID)")
	assertContains(t, skippedNames, "Retro Notes", "Retro Notes should be skipped (unique free text)")
}

func TestDiscoverRatingsCSV(t *testing.T) {
	config, err := DiscoverFromCSV(ratingsCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	pretty, _ := json.MarshalIndent(config, "", "  ")
	fmt.Printf("=== RATINGS SCHEMA ===\n%s\n\n", string(pretty))

	dimKeys := config.DimensionKeys()
	assertContains(t, dimKeys, "branch", "Branch should be a dimension")
	assertContains(t, dimKeys, "month", "Month should be a dimension")

	metKeys := config.MetricKeys()
	assertContains(t, metKeys, "food", "Food should be a metric")
	assertContains(t, metKeys, "service", "Service should be a metric")
	assertContains(t, metKeys, "ambience", "Ambience should be a metric")
	assertContains(t, metKeys, "value", "Value should be a metric")
	assertContains(t, metKeys, "revenue", "Revenue should be a metric")

	for _, m := range config.Metrics {
		if m.Key == "revenue" && m.FitsScale {
			t.Error("revenue should not fit the 0-5 scale")
		}
		if m.Key == "food" && !m.FitsScale {
			t.Error("food should fit the 0-5 scale")
		}
	}
}

func TestDiscoverWithRecovery(t *testing.T) {
	// Retro Notes is skipped (unique per row). Recover it as a dimension.
	config, err := DiscoverFromCSV(retroCSV, DiscoverOptions{
		RecoverColumns: []string{"Retro Notes"},
		Name:           "Retro with Notes",
	})
	if err != nil {
		t.Fatalf("DiscoverFromCSV with recovery failed: %v", err)
	}

	dimKeys := config.DimensionKeys()
	assertContains(t, dimKeys, "retro_notes", "Retro Notes should be recovered as dimension")

	// Verify it's NOT in skipped anymore
	for _, s := range config.SkippedColumns {
		if s.Column == "Retro Notes" {
			t.Error("Retro Notes should not be in skipped columns after recovery")
		}
	}
}

func TestDiscoverFromRowsDirect(t *testing.T) {
	headers := []string{"Area", "Focus", "Effort"}
	rows := [][]string{
		{"Platform", "4", "3"},
		{"Mobile", "3", "5"},
		{"Platform", "5", "4"},
	}

	config, err := DiscoverFromRows(headers, rows)
	if err != nil {
		t.Fatalf("DiscoverFromRows failed: %v", err)
	}

	assertContains(t, config.DimensionKeys(), "area", "Area should be a dimension")
	assertContains(t, config.MetricKeys(), "focus", "Focus should be a metric")
	assertContains(t, config.MetricKeys(), "effort", "Effort should be a metric")
}

func TestFieldsBridge(t *testing.T) {
	config, err := DiscoverFromCSV(ratingsCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	fields := config.Fields()
	if len(fields.Dimensions) != len(config.Dimensions) {
		t.Errorf("dimension count mismatch: %d vs %d", len(fields.Dimensions), len(config.Dimensions))
	}
	if len(fields.Metrics) != len(config.Metrics) {
		t.Errorf("metric count mismatch: %d vs %d", len(fields.Metrics), len(config.Metrics))
	}
	if fields.Dimensions[0].Name != "Branch" {
		t.Errorf("first dimension display name: got %q, want Branch", fields.Dimensions[0].Name)
	}
	if fields.Metrics[0].ID != "food" {
		t.Errorf("first metric key: got %q, want food", fields.Metrics[0].ID)
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Retro Notes", "retro_notes"},
		{"Code Quality", "code_quality"},
		{"codeQuality", "code_quality"},
		{"CodeQuality", "code_quality"},
		{"ID", "id"},
		{"created_at", "created_at"},
		{"Sprint", "sprint"},
	}

	for _, tt := range tests {
		got := toSnakeCase(tt.input)
		if got != tt.expected {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"code_quality", "Code Quality"},
		{"Sprint", "Sprint"},
		{"Retro Notes", "Retro Notes"},
		{"time_spent_hours", "Time Spent Hours"},
	}

	for _, tt := range tests {
		got := toDisplayName(tt.input)
		if got != tt.expected {
			t.Errorf("toDisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestScoreHeaderDetection(t *testing.T) {
	tests := []struct {
		header   string
		expected bool
	}{
		{"Satisfaction Score", true},
		{"rating", true},
		{"Star Rating", true},
		{"Revenue", false},
		{"Team", false},
	}

	for _, tt := range tests {
		got := looksLikeScore(tt.header)
		if got != tt.expected {
			t.Errorf("looksLikeScore(%q) = %v, want %v", tt.header, got, tt.expected)
		}
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func assertContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s: %q not found in %v", msg, item, slice)
}
