package results

import (
	"math"
	"strings"

	"marksheet/internal/config"
	"marksheet/pkg/contracts/domain"
)

// Normalizer maps raw feed rows into typed student records using the
// canonical ordered exam slot list.
type Normalizer struct {
	slots []string
}

// NewNormalizer creates a normalizer over the given exam slots.
func NewNormalizer(slots []string) *Normalizer {
	return &Normalizer{slots: append([]string(nil), slots...)}
}

// Slots returns the canonical exam slot list in order.
func (n *Normalizer) Slots() []string {
	return n.slots
}

// Normalize converts a RawTable into unranked student records.
// Deterministic, no failure mode: rows without a resolvable name are
// dropped (blank trailing rows), missing mark cells default to 0, present
// but non-numeric cells become NaN and surface later in the averages, and
// the Total column is copied verbatim (NaN when absent or unusable), never
// recomputed from the marks.
func (n *Normalizer) Normalize(raw *domain.RawTable) []domain.StudentRecord {
	if raw == nil {
		return nil
	}

	var records []domain.StudentRecord
	for _, row := range raw.Rows {
		attrs := zipRow(raw.Labels, row)

		name := asName(attrs[config.ColumnName])
		if name == "" {
			continue
		}

		marks := make(map[string]float64, len(n.slots))
		for _, slot := range n.slots {
			v, ok := attrs[slot]
			if !ok {
				marks[slot] = 0
				continue
			}
			marks[slot] = asNumber(v)
		}

		total := math.NaN()
		if v, ok := attrs[config.ColumnTotal]; ok {
			total = asNumber(v)
		}

		records = append(records, domain.StudentRecord{
			Name:  name,
			Marks: marks,
			Total: total,
			Extra: extraAttrs(attrs, n.slots),
		})
	}

	return records
}

// zipRow builds the attribute map by pairing labels with cells positionally.
// Columns without a label and cells without a value contribute nothing.
func zipRow(labels []string, cells []domain.Cell) map[string]any {
	attrs := make(map[string]any, len(labels))
	for i, label := range labels {
		if label == "" || i >= len(cells) {
			continue
		}
		if !cells[i].Valid {
			continue
		}
		attrs[label] = cells[i].Value
	}
	return attrs
}

// extraAttrs returns the feed columns the core does not interpret. They pass
// through opaquely so consumers can still display them.
func extraAttrs(attrs map[string]any, slots []string) map[string]any {
	known := map[string]bool{
		config.ColumnName:  true,
		config.ColumnTotal: true,
	}
	for _, slot := range slots {
		known[slot] = true
	}

	var extra map[string]any
	for label, v := range attrs {
		if known[label] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[label] = v
	}
	return extra
}

// asName coerces the name attribute to a usable identity key.
func asName(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// asNumber coerces a cell value to a float64, NaN when it is not numeric.
func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return math.NaN()
	}
}
