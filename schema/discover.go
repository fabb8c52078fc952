package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// DISCOVERY — Heuristic Column Classification for Preview Files
// ============================================================================
// Inspects raw tabular data and classifies each column:
//   1. Sample values → detect type (numeric, bool, string)
//   2. Type + cardinality → classify role (dimension, metric, skip)
//   3. Numeric range → flag metrics that fit the fixed 0-5 radar scale
// Unique-per-row columns (IDs, free text) are skipped; high-cardinality
// strings are skipped but recoverable.
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect (0 = all). Default: 1000
	RecoverColumns []string // Force-include columns that were auto-skipped
	Name           string   // Dataset name override (otherwise generic)
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV classifies the columns of CSV data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}

	var rows [][]string
	for i := 0; i < limit; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	cfg, err := DiscoverFromRows(headers, rows, opt)
	if err != nil {
		return nil, err
	}
	cfg.DiscoveredFrom = "CSV"
	return cfg, nil
}

// DiscoverFromRows classifies pre-split rows (workbook sheets, fixtures).
func DiscoverFromRows(headers []string, rows [][]string, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	if len(headers) == 0 {
		return nil, fmt.Errorf("data has no columns")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("data has no rows")
	}

	columns := make([]columnAnalysis, len(headers))
	for i, header := range headers {
		columns[i] = analyzeColumn(header, i, rows, len(rows))
	}

	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[strings.ToLower(col)] = true
	}

	config := &Config{
		Name:    opt.Name,
		Version: "1.0",
	}
	if config.Name == "" {
		config.Name = "Discovered Dataset"
	}

	var dimensions []DimensionMeta
	var metrics []MetricMeta
	var skipped []SkippedColumn

	for _, col := range columns {
		recovered := recoverSet[strings.ToLower(col.header)] || recoverSet[col.key]

		switch col.role {
		case roleDimension:
			dimensions = append(dimensions, col.toDimension())

		case roleMetric:
			metrics = append(metrics, col.toMetric())

		case roleSkipped:
			if recovered {
				dimensions = append(dimensions, col.toDimension())
			} else {
				skipped = append(skipped, SkippedColumn{
					Column:      col.header,
					Reason:      col.skipReason,
					Recoverable: col.recoverable,
				})
			}
		}
	}

	config.Dimensions = dimensions
	config.Metrics = metrics
	config.SkippedColumns = skipped
	config.DiscoveredFrom = "rows"
	config.DiscoveredAt = time.Now().Format(time.RFC3339)

	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMetric
	roleSkipped
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
	typeBool
)

type columnAnalysis struct {
	header      string
	key         string
	index       int
	colType     columnType
	role        columnRole
	skipReason  string
	recoverable bool

	// Stats
	uniqueCount int
	totalCount  int
	nullCount   int
	sampleVals  []string

	hasDecimals     bool
	minSeen         float64
	maxSeen         float64
	cardinalityHint string
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, totalRows int) columnAnalysis {
	col := columnAnalysis{
		header:     header,
		key:        toSnakeCase(header),
		index:      index,
		totalCount: totalRows,
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)

	for _, row := range rows {
		if index >= len(row) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if val == "" || val == "null" || val == "NULL" || val == "N/A" || val == "n/a" {
			col.nullCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}

	col.uniqueCount = len(uniqueSet)

	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		col.recoverable = false
		return col
	}

	col.sampleVals = collectSamples(uniqueSet, 10)
	col.colType = detectType(values)

	if col.colType == typeNumeric {
		first := true
		for _, v := range values {
			if strings.Contains(v, ".") {
				col.hasDecimals = true
			}
			if f, ok := parseNumeric(v); ok {
				if first || f < col.minSeen {
					col.minSeen = f
				}
				if first || f > col.maxSeen {
					col.maxSeen = f
				}
				first = false
			}
		}
	}

	col.classifyRole(totalRows)

	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}

	return col
}

// classifyRole determines dimension vs metric vs skip.
func (col *columnAnalysis) classifyRole(totalRows int) {
	switch col.colType {

	case typeNumeric:
		if col.uniqueCount == totalRows && totalRows > 10 && !col.hasDecimals {
			// Every value a distinct whole number → likely an ID.
			// Continuous measurements are often unique per row too,
			// so decimals exempt a column from this rule.
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely an ID column"
			col.recoverable = false
			return
		}
		// Decimals signal continuous data → always a metric
		if col.hasDecimals {
			col.role = roleMetric
			return
		}
		// Whole numbers inside the 0-5 axis range read as scores, not as
		// coded categories — that range is what the panel exists to draw.
		if col.minSeen >= 0 && col.maxSeen <= 5 {
			col.role = roleMetric
			return
		}
		if looksLikeScore(col.header) {
			col.role = roleMetric
			return
		}
		// Few unique values AND low ratio → coded dimension (e.g. year,
		// priority codes). Absolute < 20 alone fails on small datasets.
		uniqueRatio := float64(col.uniqueCount) / float64(totalRows)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = roleDimension
			return
		}
		col.role = roleMetric

	case typeBool:
		col.role = roleDimension

	case typeString:
		if col.uniqueCount == totalRows && totalRows > 10 {
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely an identifier"
			col.recoverable = false
			return
		}
		if col.uniqueCount > totalRows/2 && col.uniqueCount > 50 {
			col.role = roleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values) — not useful for grouping", col.uniqueCount)
			col.recoverable = true
			return
		}
		col.role = roleDimension
	}
}

// looksLikeScore checks the header for rating/score vocabulary.
func looksLikeScore(header string) bool {
	h := strings.ToLower(header)
	for _, kw := range []string{"score", "rating", "grade", "level", "stars"} {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for numeric/bool.
func detectType(values []string) columnType {
	if len(values) == 0 {
		return typeString
	}

	numCount := 0
	boolCount := 0

	for _, v := range values {
		if _, ok := parseNumeric(v); ok {
			numCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)

	if boolCount >= threshold {
		return typeBool
	}
	if numCount >= threshold {
		return typeNumeric
	}
	return typeString
}

// parseNumeric parses a cell as a float, tolerating separators.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // handle "1,234.56"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "false" || s == "yes" || s == "no"
}

// ============================================================================
// CONVERSION HELPERS
// ============================================================================

// toDimension converts a column analysis into DimensionMeta.
func (col *columnAnalysis) toDimension() DimensionMeta {
	return DimensionMeta{
		Key:             col.key,
		DisplayName:     toDisplayName(col.header),
		SampleValues:    col.sampleVals,
		CardinalityHint: col.cardinalityHint,
	}
}

// toMetric converts a column analysis into MetricMeta.
func (col *columnAnalysis) toMetric() MetricMeta {
	return MetricMeta{
		Key:         col.key,
		DisplayName: toDisplayName(col.header),
		FitsScale:   col.minSeen >= 0 && col.maxSeen <= 5,
		MinSeen:     col.minSeen,
		MaxSeen:     col.maxSeen,
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// KeyFor normalizes a column header to its schema key. Parsers must use
// this when matching file headers against a discovered Config, otherwise
// camelCase headers map to different keys than discovery produced.
func KeyFor(header string) string {
	return toSnakeCase(strings.TrimSpace(header))
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	// Handle camelCase: insert underscore before uppercase letters
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}

// toDisplayName cleans a header for human display.
// "code_quality" → "Code Quality", "sprint" → "Sprint"
func toDisplayName(s string) string {
	// If already has spaces/mixed case, just trim
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
