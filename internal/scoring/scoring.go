// Package scoring grades a submitted answer against a question.
package scoring

import (
	"slices"

	"github.com/victornm/teamquiz/internal/domain"
)

// PointsPerCorrectAnswer is the flat reward for a correct answer. Time spent is not rewarded.
const PointsPerCorrectAnswer = 1

// Score reports whether submitted matches the question's correct answer and the points awarded.
//
// An index answer accepts either an index or an option text, which is resolved to its index
// first; an option text that is not among the options is simply wrong. A literal answer only
// accepts the exact same text.
func Score(q domain.Question, submitted domain.Choice) (isCorrect bool, points int) {
	if correct(q, submitted) {
		return true, PointsPerCorrectAnswer
	}
	return false, 0
}

func correct(q domain.Question, submitted domain.Choice) bool {
	want := q.CorrectAnswer
	if !want.IsIndex {
		return !submitted.IsIndex && submitted.Literal == want.Literal
	}

	if submitted.IsIndex {
		return submitted.Index == want.Index
	}

	i := slices.Index(q.Options, submitted.Literal)
	return i >= 0 && i == want.Index
}
