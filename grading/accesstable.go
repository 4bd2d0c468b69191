package grading

import (
	"fmt"
	"strings"

	"github.com/sarchlab/cachequiz/display"
)

// AccessOptions controls how an access table is graded. With EmptyCache, the
// first access is known to miss and is not graded.
type AccessOptions struct {
	Mode       AccessMode `json:"mode"`
	EmptyCache bool       `json:"empty_cache"`
	Weight     int        `json:"weight"`
}

// AccessGrade is the outcome of grading an access table. Correct and
// FormatErrors are keyed by access number, counted from 0.
type AccessGrade struct {
	Score        float64        `json:"score"`
	Weight       int            `json:"weight"`
	Correct      map[int]bool   `json:"correct"`
	FormatErrors map[int]string `json:"format_errors,omitempty"`
	FirstError   int            `json:"first_error"`
	Feedback     string         `json:"feedback,omitempty"`
}

func parseSelection(s string) (hit bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hit":
		return true, nil
	case "miss":
		return false, nil
	case "":
		return false, ErrBlank
	default:
		return false, fmt.Errorf("%q is neither hit nor miss", s)
	}
}

// GradeAccessTable compares submitted "hit"/"miss" selections with the
// expected outcomes. A missing selection is a format error. FirstError is -1
// when no graded answer is wrong.
func GradeAccessTable(
	answers []display.AccessEntry,
	submitted []string,
	opts AccessOptions,
) AccessGrade {
	g := AccessGrade{
		Weight:       opts.Weight,
		Correct:      make(map[int]bool),
		FormatErrors: make(map[int]string),
		FirstError:   -1,
	}

	graded := len(answers)
	numCorrect := 0

	for i, answer := range answers {
		if i == 0 && opts.EmptyCache {
			graded--
			continue
		}

		sub := ""
		if i < len(submitted) {
			sub = submitted[i]
		}

		hit, err := parseSelection(sub)
		if err != nil {
			g.FormatErrors[i] = err.Error()
		}

		correct := err == nil && hit == answer.Hit
		g.Correct[i] = correct

		if correct {
			numCorrect++
			continue
		}

		if g.FirstError < 0 {
			g.FirstError = i
		}

		if opts.Mode == AccessModeThroughFirst {
			g.Feedback = fmt.Sprintf(
				"Your first error was on access number %d.", i)
			break
		}
	}

	g.Score = 1
	if graded > 0 {
		g.Score = float64(numCorrect) / float64(graded)
	}

	if opts.Mode == AccessModeAllOrNothing && g.Score < 1 {
		g.Score = 0
	}

	return g
}
