package quiz

import (
	"fmt"
	"strings"
	"time"
)

func promptText(index, total int, q Question, budget time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d (%s, %d seconds)\n", index+1, total, pointsLabel(q.Points), int(budget.Seconds()))
	b.WriteString(q.Text)
	b.WriteString("\n")
	for _, l := range Letters {
		fmt.Fprintf(&b, "%s. %s\n", l, q.Options[l])
	}
	return strings.TrimRight(b.String(), "\n")
}

func feedbackText(f Feedback) string {
	switch f.Outcome {
	case OutcomeCorrect:
		return fmt.Sprintf("Correct! +%s.", pointsLabel(f.Points))
	case OutcomeIncorrect:
		return fmt.Sprintf("Incorrect. The correct answer is %s.", f.CorrectLetter)
	case OutcomeTimeout:
		return fmt.Sprintf("Time is up! The correct answer is %s.", f.CorrectLetter)
	case OutcomeStale:
		if f.Recorded == OutcomeTimeout {
			return "Time expired, your answer was not counted."
		}
		return "You already answered this question, only the first answer counts."
	default:
		return ""
	}
}

func pointsLabel(n int) string {
	if n == 1 {
		return "1 point"
	}
	return fmt.Sprintf("%d points", n)
}
