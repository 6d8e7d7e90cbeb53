package config

// Canonical feed column labels the normalizer treats specially. Every other
// labelled column passes through as an opaque extra attribute.
const (
	ColumnName  = "Name"
	ColumnTotal = "Total"
)

// DefaultExamSlots is the canonical ordered set of exam identifiers. The
// order is load-bearing: it defines the shape of every record's marks map,
// the averages map, and the column order of the summary export.
var DefaultExamSlots = []string{"FA1", "FA2", "SA1", "SA2"}

// Query lane identifiers. One lane serves single lookup, the other two the
// comparison slots; each keeps its own debounce timer and resolution.
const (
	LaneLookup   = "lookup"
	LaneCompareA = "compare-a"
	LaneCompareB = "compare-b"
)

// Lanes lists every known lane identifier.
var Lanes = []string{LaneLookup, LaneCompareA, LaneCompareB}
