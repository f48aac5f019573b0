package quizconfig_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/quizconfig"
	"github.com/victornm/teamquiz/internal/store"
	"github.com/victornm/teamquiz/internal/store/memory"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func makeService(st store.Store) *quizconfig.Service {
	return quizconfig.NewService(quizconfig.Config{
		Store: st,
		Now:   func() time.Time { return t0 },
	})
}

func questions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := range n {
		qs = append(qs, domain.Question{
			ID:            fmt.Sprint(i + 1),
			Text:          fmt.Sprintf("question %d", i+1),
			Options:       []string{"a", "b"},
			CorrectAnswer: domain.IndexChoice(0),
		})
	}
	return qs
}

func TestService_Get_Default(t *testing.T) {
	t.Parallel()

	c, err := makeService(memory.NewStore()).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.QuizConfig{
		SelectedQuestions: []domain.Question{},
		MinQuestions:      quizconfig.MinQuestions,
	}, c)
}

func TestService_Save(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		questions []domain.Question
		wantValid bool
		wantErr   error
	}{
		"should keep a selection below the minimum as not valid": {
			questions: questions(3),
			wantValid: false,
		},
		"should mark a selection of the minimum as valid": {
			questions: questions(quizconfig.MinQuestions),
			wantValid: true,
		},
		"should accept an empty selection": {
			questions: nil,
			wantValid: false,
		},
		"should reject a question without id": {
			questions: []domain.Question{{Text: "no id", Options: []string{"a", "b"}}},
			wantErr:   domain.ErrInvalidQuestion,
		},
		"should reject duplicate ids": {
			questions: append(questions(2), questions(1)...),
			wantErr:   domain.ErrInvalidQuestion,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := makeService(memory.NewStore())
			ctx := context.Background()

			saved, err := s.Save(ctx, quizconfig.SaveRequest{Questions: tt.questions})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				c, err := s.Get(ctx)
				require.NoError(t, err)
				assert.Nil(t, c.LastUpdated, "nothing saved")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, saved.IsValid)
			assert.Equal(t, quizconfig.MinQuestions, saved.MinQuestions)
			assert.Len(t, saved.SelectedQuestions, len(tt.questions))
			require.NotNil(t, saved.LastUpdated)
			assert.Equal(t, t0, *saved.LastUpdated)

			got, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, saved, got)
		})
	}
}

func TestService_Reset(t *testing.T) {
	t.Parallel()

	st := memory.NewStore()
	s := makeService(st)
	ctx := context.Background()

	_, err := s.Save(ctx, quizconfig.SaveRequest{Questions: questions(8)})
	require.NoError(t, err)

	reset, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Empty(t, reset.SelectedQuestions)
	assert.Nil(t, reset.LastUpdated)
	assert.False(t, reset.IsValid)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, reset, got)

	records, err := st.Read(ctx, store.KeyQuizConfig)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_Save_Concurrent(t *testing.T) {
	t.Parallel()

	st := memory.NewStore()
	s := makeService(st)
	ctx := context.Background()

	var g errgroup.Group
	for i := range 10 {
		g.Go(func() error {
			_, err := s.Save(ctx, quizconfig.SaveRequest{Questions: questions(i + 1)})
			return err
		})
	}
	require.NoError(t, g.Wait())

	records, err := st.Read(ctx, store.KeyQuizConfig)
	require.NoError(t, err)
	assert.Len(t, records, 1, "a save replaces the whole selection")
}
