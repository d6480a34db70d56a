package quiz

import (
	"strconv"
	"strings"
	"unicode"
)

// Parse extracts every well-formed question block from raw, in the order the
// blocks appear. Text that does not form a complete block is skipped, so the
// result may be empty but is never an error.
//
// A block is:
//
//	1. (2 points)            header: optional label, number, points in parens
//	What is the capital?     one or more text lines (or text after the header)
//	A. Paris                 four options A-D, "A." or "A)"
//	B. Rome
//	C. Madrid
//	D. Berlin
//	Answer: A                correct letter, case-insensitive
//
// Blank lines anywhere inside a block are ignored.
func Parse(raw string) []Question {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var out []Question
	for i := 0; i < len(lines); {
		if _, _, _, ok := parseHeader(lines[i]); !ok {
			i++
			continue
		}
		q, next, ok := parseBlock(lines, i)
		if !ok {
			i++
			continue
		}
		out = append(out, q)
		i = next
	}
	return out
}

func parseBlock(lines []string, start int) (Question, int, bool) {
	number, points, rest, _ := parseHeader(lines[start])
	q := Question{
		Number:  number,
		Points:  points,
		Options: make(map[string]string, len(Letters)),
	}

	var text []string
	if rest != "" {
		text = append(text, rest)
	}

	i := start + 1
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		// "A.I. is..." as the first text line is question text, not option A
		if letter, _, ok := parseOption(line); ok && len(text) > 0 {
			if letter != Letters[0] {
				return Question{}, 0, false
			}
			break
		}
		if _, ok := parseAnswer(line); ok {
			return Question{}, 0, false
		}
		if _, _, _, ok := parseHeader(line); ok {
			return Question{}, 0, false
		}
		text = append(text, line)
	}
	if len(text) == 0 {
		return Question{}, 0, false
	}
	q.Text = strings.Join(text, "\n")

	for _, want := range Letters {
		i = skipBlank(lines, i)
		if i >= len(lines) {
			return Question{}, 0, false
		}
		letter, body, ok := parseOption(strings.TrimSpace(lines[i]))
		if !ok || letter != want {
			return Question{}, 0, false
		}
		q.Options[letter] = body
		i++
	}

	i = skipBlank(lines, i)
	if i >= len(lines) {
		return Question{}, 0, false
	}
	correct, ok := parseAnswer(strings.TrimSpace(lines[i]))
	if !ok {
		return Question{}, 0, false
	}
	q.Correct = correct
	return q, i + 1, true
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

// parseHeader recognises "1. (2 points)", "Question 3 (1 point)",
// "2) (3 points) Text..." and similar. rest is any text after the
// parenthesised point value.
func parseHeader(line string) (number, points int, rest string, ok bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimSpace(strings.TrimLeft(strings.Trim(s, "*"), "# "))

	// optional label such as "Question" or "Q"
	label := leadingFunc(s, unicode.IsLetter)
	if label != "" {
		s = strings.TrimLeft(s[len(label):], " \t#")
	}

	digits := leadingFunc(s, unicode.IsDigit)
	if digits == "" {
		return 0, 0, "", false
	}
	number, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, "", false
	}
	s = strings.TrimSpace(s[len(digits):])
	if s != "" && strings.ContainsRune(".):", rune(s[0])) {
		s = strings.TrimSpace(s[1:])
	}

	if !strings.HasPrefix(s, "(") {
		return 0, 0, "", false
	}
	closeAt := strings.IndexByte(s, ')')
	if closeAt < 0 {
		return 0, 0, "", false
	}
	inner := strings.TrimSpace(s[1:closeAt])
	pointDigits := leadingFunc(inner, unicode.IsDigit)
	if pointDigits == "" {
		return 0, 0, "", false
	}
	unit := strings.TrimSpace(inner[len(pointDigits):])
	for _, r := range unit {
		if !unicode.IsLetter(r) && r != '.' && r != ' ' {
			return 0, 0, "", false
		}
	}
	points, err = strconv.Atoi(pointDigits)
	if err != nil || points <= 0 {
		return 0, 0, "", false
	}

	rest = strings.TrimSpace(strings.TrimLeft(s[closeAt+1:], " \t:-"))
	return number, points, rest, true
}

// parseOption recognises "A. text" and "A) text".
func parseOption(line string) (letter, body string, ok bool) {
	if len(line) < 2 {
		return "", "", false
	}
	letter = strings.ToUpper(line[:1])
	if !isLetter(letter) || (line[1] != '.' && line[1] != ')') {
		return "", "", false
	}
	body = strings.TrimSpace(line[2:])
	if body == "" {
		return "", "", false
	}
	return letter, body, true
}

// parseAnswer recognises "Answer: B", "answer - b", "Correct answer: C)".
func parseAnswer(line string) (string, bool) {
	lower := strings.ToLower(line)
	lower = strings.TrimPrefix(lower, "correct ")
	if !strings.HasPrefix(lower, "answer") {
		return "", false
	}
	s := strings.TrimSpace(lower[len("answer"):])
	if s == "" || (s[0] != ':' && s[0] != '-') {
		return "", false
	}
	s = strings.TrimSpace(s[1:])
	if s == "" {
		return "", false
	}
	letter := strings.ToUpper(s[:1])
	if !isLetter(letter) {
		return "", false
	}
	if len(s) > 1 && unicode.IsLetter(rune(s[1])) {
		return "", false
	}
	return letter, true
}

func isLetter(s string) bool {
	for _, l := range Letters {
		if s == l {
			return true
		}
	}
	return false
}

func leadingFunc(s string, f func(rune) bool) string {
	end := strings.IndexFunc(s, func(r rune) bool { return !f(r) })
	if end < 0 {
		return s
	}
	return s[:end]
}
