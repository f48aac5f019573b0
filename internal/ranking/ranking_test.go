package ranking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/teamquiz/internal/ranking"
)

type rec struct {
	name  string
	score int
	ts    int64
}

func rank(records []rec) []ranking.Ranked[rec] {
	return ranking.Rank(records,
		func(r rec) int { return r.score },
		func(r rec) time.Time { return time.UnixMilli(r.ts) },
	)
}

func TestRank(t *testing.T) {
	tests := map[string]struct {
		in   []rec
		want []string
	}{
		"score descending": {
			in:   []rec{{"a", 1, 0}, {"b", 3, 0}, {"c", 2, 0}},
			want: []string{"b", "c", "a"},
		},
		"earlier timestamp wins a tie": {
			in:   []rec{{"a", 50, 200}, {"b", 50, 100}, {"c", 30, 300}},
			want: []string{"b", "a", "c"},
		},
		"equal score and timestamp keep input order": {
			in:   []rec{{"x", 5, 10}, {"y", 5, 10}, {"z", 5, 10}},
			want: []string{"x", "y", "z"},
		},
		"empty": {
			in:   nil,
			want: []string{},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := rank(tt.in)

			names := make([]string, 0, len(got))
			for i, r := range got {
				assert.Equal(t, i+1, r.Position)
				names = append(names, r.Record.name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRank_PositionsForTiedScores(t *testing.T) {
	got := rank([]rec{{"p200", 50, 200}, {"p100", 50, 100}, {"p300", 30, 300}})

	assert.Equal(t, []ranking.Ranked[rec]{
		{Record: rec{"p100", 50, 100}, Position: 1},
		{Record: rec{"p200", 50, 200}, Position: 2},
		{Record: rec{"p300", 30, 300}, Position: 3},
	}, got)
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	in := []rec{{"a", 1, 0}, {"b", 2, 0}}
	_ = rank(in)

	assert.Equal(t, []rec{{"a", 1, 0}, {"b", 2, 0}}, in)
}
