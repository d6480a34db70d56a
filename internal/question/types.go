package question

import (
	"fmt"
	"strings"
)

// Difficulty constants for readability.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Request describes the quiz text a provider should produce.
type Request struct {
	Topic string
	Count int
}

// Item is a structured multiple-choice question from a trivia provider.
type Item struct {
	Prompt     string
	Correct    string
	Incorrect  []string
	Difficulty string
}

// PointsFor maps a difficulty to a point value.
func PointsFor(difficulty string) int {
	switch strings.ToLower(difficulty) {
	case DifficultyHard:
		return 3
	case DifficultyMedium:
		return 2
	default:
		return 1
	}
}

// Render writes items in the block format the quiz parser reads. Items without
// exactly three wrong answers are skipped. shuffle, when non-nil, picks the
// slot (0-3) for the correct answer of item i.
func Render(items []Item, shuffle func(i int) int) string {
	var b strings.Builder
	n := 0
	for i, it := range items {
		if len(it.Incorrect) != 3 || it.Prompt == "" || it.Correct == "" {
			continue
		}
		slot := i % 4
		if shuffle != nil {
			slot = shuffle(i) % 4
		}
		options := make([]string, 0, 4)
		options = append(options, it.Incorrect[:slot]...)
		options = append(options, it.Correct)
		options = append(options, it.Incorrect[slot:]...)

		n++
		fmt.Fprintf(&b, "%d. (%d points)\n%s\n", n, PointsFor(it.Difficulty), oneLine(it.Prompt))
		for j, opt := range options {
			fmt.Fprintf(&b, "%c. %s\n", 'A'+j, oneLine(opt))
		}
		fmt.Fprintf(&b, "Answer: %c\n\n", 'A'+slot)
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
