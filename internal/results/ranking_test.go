package results

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marksheet/internal/config"
	"marksheet/pkg/contracts/domain"
)

func student(name string, total float64, marks map[string]float64) domain.StudentRecord {
	return domain.StudentRecord{Name: name, Total: total, Marks: marks}
}

func TestRank(t *testing.T) {
	records := []domain.StudentRecord{
		student("B", 10, map[string]float64{"FA1": 4, "FA2": 6}),
		student("A", 20, map[string]float64{"FA1": 8, "FA2": 12}),
		student("C", 5, map[string]float64{"FA1": 3, "FA2": 2}),
	}

	ranked, avgs := Rank(records, []string{"FA1", "FA2"})

	require.Len(t, ranked, 3)
	assert.Equal(t, "A", ranked[0].Name)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "B", ranked[1].Name)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, "C", ranked[2].Name)
	assert.Equal(t, 3, ranked[2].Rank)

	assert.Equal(t, "5.00", avgs["FA1"])
	assert.Equal(t, "6.67", avgs["FA2"])
}

func TestRank_TiesKeepFeedOrder(t *testing.T) {
	records := []domain.StudentRecord{
		student("First", 10, nil),
		student("Second", 10, nil),
		student("Third", 10, nil),
	}

	ranked, _ := Rank(records, nil)

	assert.Equal(t, []string{"First", "Second", "Third"},
		[]string{ranked[0].Name, ranked[1].Name, ranked[2].Name})
	assert.Equal(t, []int{1, 2, 3},
		[]int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
}

func TestRank_MissingTotalsSortLast(t *testing.T) {
	records := []domain.StudentRecord{
		student("NoTotal", math.NaN(), nil),
		student("Low", 1, nil),
		student("AlsoNoTotal", math.NaN(), nil),
		student("High", 50, nil),
	}

	ranked, _ := Rank(records, nil)

	assert.Equal(t, "High", ranked[0].Name)
	assert.Equal(t, "Low", ranked[1].Name)
	// NaN totals trail the real ones in their original relative order.
	assert.Equal(t, "NoTotal", ranked[2].Name)
	assert.Equal(t, "AlsoNoTotal", ranked[3].Name)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	records := []domain.StudentRecord{
		student("B", 1, nil),
		student("A", 2, nil),
	}

	Rank(records, nil)

	assert.Equal(t, "B", records[0].Name)
	assert.Zero(t, records[0].Rank)
}

func TestAverages_EmptyDataset(t *testing.T) {
	_, avgs := Rank(nil, config.DefaultExamSlots)

	require.Len(t, avgs, len(config.DefaultExamSlots))
	for _, slot := range config.DefaultExamSlots {
		assert.Equal(t, "0.00", avgs[slot])
	}
}

func TestAverages_NaNMarkPropagates(t *testing.T) {
	records := []domain.StudentRecord{
		student("Alice", 10, map[string]float64{"FA1": math.NaN()}),
		student("Bob", 10, map[string]float64{"FA1": 5}),
	}

	_, avgs := Rank(records, []string{"FA1"})

	assert.Equal(t, "NaN", avgs["FA1"])
}

func TestAverages_OmittedMarksCountAsZero(t *testing.T) {
	records := []domain.StudentRecord{
		student("Alice", 10, map[string]float64{"FA1": 10}),
		student("Bob", 0, map[string]float64{"FA1": 0}),
	}

	_, avgs := Rank(records, []string{"FA1"})

	assert.Equal(t, "5.00", avgs["FA1"])
}
