package results

import (
	"fmt"
	"math"
	"sort"

	"marksheet/pkg/contracts/domain"
)

// Rank sorts records descending by total, assigns dense ranks 1..N, and
// computes per-exam class averages. The sort is stable, so students with
// equal totals keep their feed order and receive distinct consecutive ranks.
// Records without a usable total (NaN) sort after every real total.
// The ranked slice and the averages are always produced together as a
// matched pair; callers must publish them together.
func Rank(records []domain.StudentRecord, slots []string) ([]domain.StudentRecord, domain.Averages) {
	ranked := append([]domain.StudentRecord(nil), records...)

	sort.SliceStable(ranked, func(i, j int) bool {
		return totalLess(ranked[j].Total, ranked[i].Total)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked, averages(ranked, slots)
}

// totalLess orders totals ascending with NaN below every real value.
// Go's float comparisons are always false against NaN, which would make a
// stable sort treat a missing total as equal to everything around it.
func totalLess(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return !math.IsNaN(b)
	case math.IsNaN(b):
		return false
	default:
		return a < b
	}
}

// averages computes the arithmetic mean of every exam slot's marks across
// all records, formatted to two decimals. The 0 defaults for omitted marks
// count toward the mean; a NaN mark (malformed feed cell) propagates and
// surfaces here as "NaN" rather than being silently dropped.
// An empty dataset publishes "0.00" for every slot.
func averages(records []domain.StudentRecord, slots []string) domain.Averages {
	avgs := make(domain.Averages, len(slots))

	if len(records) == 0 {
		for _, slot := range slots {
			avgs[slot] = "0.00"
		}
		return avgs
	}

	for _, slot := range slots {
		var sum float64
		for _, rec := range records {
			sum += rec.Marks[slot]
		}
		avgs[slot] = fmt.Sprintf("%.2f", sum/float64(len(records)))
	}

	return avgs
}
