package schema

import (
	"log"
	"strconv"
)

// ============================================================================
// ADJUST — Manual Overrides for a Discovered Schema
// ============================================================================
//
// Discovery is heuristic, and heuristics misfire: a coded category lands in
// the 0-5 range and reads as a score, or a column someone wants to group by
// gets skipped as noise. Adjust applies caller overrides to a discovered
// Config. The original Config is NOT mutated — a new Config is returned.
//
// Rules:
//   - Renames change display names only; keys stay stable
//   - AsDimension/AsMetric move columns across roles, including out of the
//     skipped list (moved columns append to the end of their new list)
//   - Drop excludes a column outright and records why
//   - Column references match the original header, the display name, or the
//     snake_case key; unknown references are logged and ignored, never fatal
// ============================================================================

// Adjustments describes manual corrections to a discovered schema.
type Adjustments struct {
	Rename      map[string]string // column → new display name
	AsDimension []string          // treat these columns as dimensions
	AsMetric    []string          // treat these columns as metrics
	Drop        []string          // exclude these columns entirely
}

// Empty reports whether the adjustments would change anything.
func (adj Adjustments) Empty() bool {
	return len(adj.Rename) == 0 && len(adj.AsDimension) == 0 &&
		len(adj.AsMetric) == 0 && len(adj.Drop) == 0
}

// Adjust returns a new Config with the overrides applied. Role moves run
// first, then drops, then renames — so a recovered column can be renamed in
// the same call.
func (c *Config) Adjust(adj Adjustments) *Config {
	if c == nil {
		return nil
	}
	result := deepCopyConfig(c)
	if adj.Empty() {
		return result
	}

	moved := 0
	for _, ref := range adj.AsDimension {
		if result.moveColumn(ref, true) {
			moved++
		} else {
			log.Printf("⚠️ Spiderviz: adjustment target %q not in schema — ignored", ref)
		}
	}
	for _, ref := range adj.AsMetric {
		if result.moveColumn(ref, false) {
			moved++
		} else {
			log.Printf("⚠️ Spiderviz: adjustment target %q not in schema — ignored", ref)
		}
	}

	dropped := 0
	for _, ref := range adj.Drop {
		if result.dropColumn(ref) {
			dropped++
		} else {
			log.Printf("⚠️ Spiderviz: drop target %q not in schema — ignored", ref)
		}
	}

	renamed := 0
	for ref, name := range adj.Rename {
		if name == "" {
			continue
		}
		if result.renameColumn(ref, name) {
			renamed++
		} else {
			log.Printf("⚠️ Spiderviz: rename target %q not in schema — ignored", ref)
		}
	}

	log.Printf("🔧 Spiderviz: schema adjusted — %d moved, %d dropped, %d renamed",
		moved, dropped, renamed)
	return result
}

// ============================================================================
// COLUMN OPERATIONS — each works on an already-copied Config
// ============================================================================

// moveColumn reclassifies a column as dimension (toDim) or metric. Returns
// false when the reference matches nothing.
func (c *Config) moveColumn(ref string, toDim bool) bool {
	key := toSnakeCase(ref)

	if i := c.dimensionIndex(key); i >= 0 {
		if toDim {
			return true // already there
		}
		d := c.Dimensions[i]
		c.Dimensions = append(c.Dimensions[:i], c.Dimensions[i+1:]...)
		c.Metrics = append(c.Metrics, metricFromDimension(d))
		return true
	}

	if i := c.metricIndex(key); i >= 0 {
		if !toDim {
			return true
		}
		m := c.Metrics[i]
		c.Metrics = append(c.Metrics[:i], c.Metrics[i+1:]...)
		c.Dimensions = append(c.Dimensions, DimensionMeta{
			Key:         m.Key,
			DisplayName: m.DisplayName,
		})
		return true
	}

	if i := c.skippedIndex(key); i >= 0 {
		s := c.SkippedColumns[i]
		c.SkippedColumns = append(c.SkippedColumns[:i], c.SkippedColumns[i+1:]...)
		if toDim {
			c.Dimensions = append(c.Dimensions, DimensionMeta{
				Key:         toSnakeCase(s.Column),
				DisplayName: s.Column,
			})
		} else {
			c.Metrics = append(c.Metrics, MetricMeta{
				Key:         toSnakeCase(s.Column),
				DisplayName: s.Column,
			})
		}
		return true
	}

	return false
}

// dropColumn removes a column from whichever list holds it. Dropping an
// already-skipped column is a no-op that still counts as found.
func (c *Config) dropColumn(ref string) bool {
	key := toSnakeCase(ref)

	if i := c.dimensionIndex(key); i >= 0 {
		d := c.Dimensions[i]
		c.Dimensions = append(c.Dimensions[:i], c.Dimensions[i+1:]...)
		c.SkippedColumns = append(c.SkippedColumns, SkippedColumn{
			Column:      d.DisplayName,
			Reason:      "Excluded by adjustment",
			Recoverable: true,
		})
		return true
	}
	if i := c.metricIndex(key); i >= 0 {
		m := c.Metrics[i]
		c.Metrics = append(c.Metrics[:i], c.Metrics[i+1:]...)
		c.SkippedColumns = append(c.SkippedColumns, SkippedColumn{
			Column:      m.DisplayName,
			Reason:      "Excluded by adjustment",
			Recoverable: true,
		})
		return true
	}
	return c.skippedIndex(key) >= 0
}

func (c *Config) renameColumn(ref, name string) bool {
	key := toSnakeCase(ref)
	if i := c.dimensionIndex(key); i >= 0 {
		c.Dimensions[i].DisplayName = name
		return true
	}
	if i := c.metricIndex(key); i >= 0 {
		c.Metrics[i].DisplayName = name
		return true
	}
	return false
}

func (c *Config) dimensionIndex(key string) int {
	for i, d := range c.Dimensions {
		if d.Key == key || toSnakeCase(d.DisplayName) == key {
			return i
		}
	}
	return -1
}

func (c *Config) metricIndex(key string) int {
	for i, m := range c.Metrics {
		if m.Key == key || toSnakeCase(m.DisplayName) == key {
			return i
		}
	}
	return -1
}

func (c *Config) skippedIndex(key string) int {
	for i, s := range c.SkippedColumns {
		if toSnakeCase(s.Column) == key {
			return i
		}
	}
	return -1
}

// metricFromDimension salvages scale stats from the dimension's samples:
// when every sampled value parses as a number, min/max and the scale flag
// carry over. A partial sample is better than claiming nothing.
func metricFromDimension(d DimensionMeta) MetricMeta {
	m := MetricMeta{Key: d.Key, DisplayName: d.DisplayName}

	if len(d.SampleValues) == 0 {
		return m
	}
	minSeen, maxSeen := 0.0, 0.0
	for i, v := range d.SampleValues {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return m
		}
		if i == 0 || f < minSeen {
			minSeen = f
		}
		if i == 0 || f > maxSeen {
			maxSeen = f
		}
	}
	m.MinSeen = minSeen
	m.MaxSeen = maxSeen
	m.FitsScale = minSeen >= 0 && maxSeen <= 5
	return m
}

// ============================================================================
// DEEP COPY
// ============================================================================

func deepCopyConfig(src *Config) *Config {
	dst := &Config{
		Name:           src.Name,
		Version:        src.Version,
		Description:    src.Description,
		DiscoveredFrom: src.DiscoveredFrom,
		DiscoveredAt:   src.DiscoveredAt,
	}

	dst.Dimensions = make([]DimensionMeta, len(src.Dimensions))
	for i, d := range src.Dimensions {
		dst.Dimensions[i] = d
		dst.Dimensions[i].SampleValues = make([]string, len(d.SampleValues))
		copy(dst.Dimensions[i].SampleValues, d.SampleValues)
	}

	dst.Metrics = make([]MetricMeta, len(src.Metrics))
	copy(dst.Metrics, src.Metrics)

	dst.SkippedColumns = make([]SkippedColumn, len(src.SkippedColumns))
	copy(dst.SkippedColumns, src.SkippedColumns)

	return dst
}
