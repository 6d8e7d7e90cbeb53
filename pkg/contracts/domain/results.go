package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Cell is a single raw feed cell. Valid is false when the feed carried no
// value at that position (absent or null cell), which is distinct from a
// present zero.
type Cell struct {
	Value any
	Valid bool
}

// RawTable is the generic tabular form of the feed payload: ordered column
// labels plus rows of cells aligned by column index. Labels stay positional
// even when the feed omits one (empty string) so the label/cell zip in the
// normalizer never shifts.
type RawTable struct {
	Labels []string
	Rows   [][]Cell
}

// StudentRecord is one student's normalized exam results.
// Marks always contains exactly the canonical exam slots; a slot the feed
// omitted holds 0, a slot the feed filled with garbage holds NaN.
// Total is the feed's own Total column verbatim, never recomputed from
// Marks, and is NaN when the feed had no usable value for it.
type StudentRecord struct {
	Name  string
	Marks map[string]float64
	Total float64
	Rank  int
	Extra map[string]any
}

// Averages maps each canonical exam slot to the class mean of that exam's
// marks, formatted to two decimal places.
type Averages map[string]string

// Snapshot is the read-only view of the dataset store handed to consumers.
// Records and Averages always come from the same successful publish.
type Snapshot struct {
	Records  []StudentRecord `json:"records"`
	Averages Averages        `json:"averages"`
	Loaded   bool            `json:"loaded"`
	Loading  bool            `json:"loading"`
	LoadedAt time.Time       `json:"loaded_at,omitempty"`
}

// HasTotal reports whether the feed supplied a usable total for this record.
func (r StudentRecord) HasTotal() bool {
	return !math.IsNaN(r.Total)
}

// studentRecordJSON mirrors StudentRecord with pointer numerics so NaN can
// render as null. encoding/json rejects NaN float64 values outright, and the
// feed legitimately produces them for rows with a missing or malformed Total.
type studentRecordJSON struct {
	Name  string              `json:"name"`
	Marks map[string]*float64 `json:"marks"`
	Total *float64            `json:"total"`
	Rank  int                 `json:"rank"`
	Extra map[string]any      `json:"extra,omitempty"`
}

func nullableFloat(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	v := f
	return &v
}

// MarshalJSON implements json.Marshaler, mapping NaN to null.
func (r StudentRecord) MarshalJSON() ([]byte, error) {
	marks := make(map[string]*float64, len(r.Marks))
	for slot, mark := range r.Marks {
		marks[slot] = nullableFloat(mark)
	}
	return json.Marshal(studentRecordJSON{
		Name:  r.Name,
		Marks: marks,
		Total: nullableFloat(r.Total),
		Rank:  r.Rank,
		Extra: r.Extra,
	})
}

// UnmarshalJSON implements json.Unmarshaler, mapping null back to NaN.
func (r *StudentRecord) UnmarshalJSON(data []byte) error {
	var aux studentRecordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Name = aux.Name
	r.Rank = aux.Rank
	r.Extra = aux.Extra
	r.Marks = make(map[string]float64, len(aux.Marks))
	for slot, mark := range aux.Marks {
		if mark == nil {
			r.Marks[slot] = math.NaN()
		} else {
			r.Marks[slot] = *mark
		}
	}
	if aux.Total == nil {
		r.Total = math.NaN()
	} else {
		r.Total = *aux.Total
	}
	return nil
}
