package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinishReportsEarnedOutOfPossible(t *testing.T) {
	e := NewEngine(TierConfig{})

	tests := []struct {
		name    string
		points  []int
		earned  int
		correct int
		want    string
		percent float64
	}{
		{name: "all correct", points: []int{10}, earned: 10, correct: 1, want: "10 out of 10", percent: 100},
		{name: "all wrong", points: []int{10}, earned: 0, correct: 0, want: "0 out of 10", percent: 0},
		{name: "mixed", points: []int{6, 6, 6}, earned: 12, correct: 2, want: "12 out of 18", percent: 66.666},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := e.Finish(tc.points, tc.earned, tc.correct)
			assert.Contains(t, r.Text(), tc.want)
			assert.InDelta(t, tc.percent, r.Percentage, 0.01)
			assert.Equal(t, len(tc.points), r.Questions)
			assert.Equal(t, tc.correct, r.Correct)
		})
	}
}

func TestFinishWithoutPossiblePoints(t *testing.T) {
	r := NewEngine(TierConfig{}).Finish(nil, 0, 0)
	assert.Equal(t, 0.0, r.Percentage)
	assert.Equal(t, 0, r.Possible)
}

func TestTiersUseAbsolutePoints(t *testing.T) {
	cfg := DefaultTierConfig()

	assert.Equal(t, "Excellent", cfg.Tier(25))
	assert.Equal(t, "Excellent", cfg.Tier(40))
	assert.Equal(t, "Good", cfg.Tier(15))
	assert.Equal(t, "Good", cfg.Tier(24))
	assert.Equal(t, "Needs improvement", cfg.Tier(14))
	assert.Equal(t, "Needs improvement", cfg.Tier(0))

	// a perfect score on a small quiz stays in the lowest band
	r := NewEngine(cfg).Finish([]int{10}, 10, 1)
	assert.Equal(t, "Needs improvement", r.Tier)
}

func TestCustomBandsAreSorted(t *testing.T) {
	cfg := TierConfig{Bands: []Band{
		{MinPoints: 0, Label: "low"},
		{MinPoints: 10, Label: "high"},
		{MinPoints: 5, Label: "mid"},
	}}

	assert.Equal(t, "high", cfg.Tier(10))
	assert.Equal(t, "mid", cfg.Tier(7))
	assert.Equal(t, "low", cfg.Tier(1))
	assert.Equal(t, "low", cfg.Tier(-3))
}
