// Package ranking orders scored records and assigns their positions.
package ranking

import (
	"cmp"
	"slices"
	"time"
)

type Ranked[T any] struct {
	Record   T
	Position int
}

// Rank orders records by score descending, then by the tie-break time ascending, so whoever
// finished first wins a tie. Records equal on both keys keep their input order.
// Positions are 1-based. The input slice is not modified.
func Rank[T any](records []T, score func(T) int, tiebreak func(T) time.Time) []Ranked[T] {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if c := cmp.Compare(score(b), score(a)); c != 0 {
			return c
		}
		return tiebreak(a).Compare(tiebreak(b))
	})

	out := make([]Ranked[T], 0, len(sorted))
	for i, r := range sorted {
		out = append(out, Ranked[T]{Record: r, Position: i + 1})
	}
	return out
}
