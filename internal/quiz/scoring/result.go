package scoring

import (
	"fmt"
	"sort"
)

// Band maps a minimum number of earned points to a tier label.
type Band struct {
	MinPoints int    `json:"min_points" yaml:"min_points"`
	Label     string `json:"label" yaml:"label"`
}

// TierConfig holds the qualitative tier bands. Bands compare absolute earned
// points and are not scaled by the total a quiz offers.
type TierConfig struct {
	Bands []Band `json:"bands" yaml:"bands"`
}

// DefaultTierConfig returns production defaults.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		Bands: []Band{
			{MinPoints: 25, Label: "Excellent"},
			{MinPoints: 15, Label: "Good"},
			{MinPoints: 0, Label: "Needs improvement"},
		},
	}
}

// Tier returns the label of the highest band whose threshold earned reaches.
// The lowest band is used when nothing matches.
func (c TierConfig) Tier(earned int) string {
	bands := c.sorted()
	if len(bands) == 0 {
		return ""
	}
	for _, b := range bands {
		if earned >= b.MinPoints {
			return b.Label
		}
	}
	return bands[len(bands)-1].Label
}

func (c TierConfig) sorted() []Band {
	bands := make([]Band, len(c.Bands))
	copy(bands, c.Bands)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].MinPoints > bands[j].MinPoints })
	return bands
}

// Result is the end-of-quiz summary.
type Result struct {
	Earned     int     `json:"earned"`
	Possible   int     `json:"possible"`
	Percentage float64 `json:"percentage"`
	Tier       string  `json:"tier"`
	Correct    int     `json:"correct"`
	Questions  int     `json:"questions"`
}

// Text renders the result for delivery to the user.
func (r Result) Text() string {
	return fmt.Sprintf("Test finished! You scored %d out of %d points (%.1f%%).\nResult: %s",
		r.Earned, r.Possible, r.Percentage, r.Tier)
}

// Engine computes final results with configurable tier bands.
type Engine struct {
	config TierConfig
}

// NewEngine creates a result engine with the provided config. An empty band
// list falls back to DefaultTierConfig.
func NewEngine(config TierConfig) *Engine {
	if len(config.Bands) == 0 {
		config = DefaultTierConfig()
	}
	return &Engine{config: config}
}

// Finish computes the summary for a quiz whose questions carry the given point
// values and in which earned points were scored over correct answers.
func (e *Engine) Finish(points []int, earned, correct int) Result {
	possible := 0
	for _, p := range points {
		possible += p
	}

	percentage := 0.0
	if possible > 0 {
		percentage = float64(earned) / float64(possible) * 100
	}

	return Result{
		Earned:     earned,
		Possible:   possible,
		Percentage: percentage,
		Tier:       e.config.Tier(earned),
		Correct:    correct,
		Questions:  len(points),
	}
}
