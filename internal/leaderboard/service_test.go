package leaderboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/leaderboard"
	"github.com/victornm/teamquiz/internal/store"
	"github.com/victornm/teamquiz/internal/store/memory"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func makeService(t *testing.T, st store.Store) *leaderboard.Service {
	t.Helper()

	now := t0
	return leaderboard.NewService(leaderboard.Config{
		Store: st,
		Now: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	})
}

func TestService_GetLeaderboard(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T) store.Store
		assert  func(t *testing.T, players []domain.Player)
	}{
		"should return an empty leaderboard on first run": {
			arrange: func(t *testing.T) store.Store {
				return memory.NewStore()
			},
			assert: func(t *testing.T, players []domain.Player) {
				assert.Empty(t, players)
			},
		},
		"should break score ties by the earlier timestamp": {
			arrange: func(t *testing.T) store.Store {
				st := memory.NewStore()
				require.NoError(t, store.Save(context.Background(), st, store.KeyPlayers, []domain.Player{
					{ID: "a", Group: "A", Score: 50, Position: 9, Timestamp: t0.Add(200)},
					{ID: "b", Group: "B", Score: 50, Position: 9, Timestamp: t0.Add(100)},
					{ID: "c", Group: "C", Score: 30, Position: 9, Timestamp: t0.Add(300)},
				}))
				return st
			},
			assert: func(t *testing.T, players []domain.Player) {
				require.Len(t, players, 3)
				assert.Equal(t, "b", players[0].ID)
				assert.Equal(t, 1, players[0].Position)
				assert.Equal(t, "a", players[1].ID)
				assert.Equal(t, 2, players[1].Position)
				assert.Equal(t, "c", players[2].ID)
				assert.Equal(t, 3, players[2].Position)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := makeService(t, tt.arrange(t))

			players, err := s.GetLeaderboard(context.Background())
			require.NoError(t, err)
			tt.assert(t, players)
		})
	}
}

func TestService_Record(t *testing.T) {
	st := memory.NewStore()
	s := makeService(t, st)
	ctx := context.Background()

	first, err := s.Record(ctx, leaderboard.RecordRequest{Group: "TEAM RED", Score: 3, SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position)

	blue, err := s.Record(ctx, leaderboard.RecordRequest{Group: "TEAM BLUE", Score: 5, SessionID: "s2"})
	require.NoError(t, err)
	assert.Equal(t, 1, blue.Position)

	again, err := s.Record(ctx, leaderboard.RecordRequest{Group: "TEAM RED", Score: 7, SessionID: "s3"})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Position)
	assert.Equal(t, "s3", again.SessionID)

	players, err := s.GetLeaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2, "one entry per group")
	assert.Equal(t, "TEAM RED", players[0].Group)
	assert.Equal(t, 7, players[0].Score)
	assert.Equal(t, "TEAM BLUE", players[1].Group)
	assert.Equal(t, 2, players[1].Position)

	// Persisted positions match the ranking at write time.
	stored, err := store.Load[domain.Player](ctx, st, store.KeyPlayers)
	require.NoError(t, err)
	assert.Equal(t, players, stored)
}

func TestService_Record_Concurrent(t *testing.T) {
	s := leaderboard.NewService(leaderboard.Config{Store: memory.NewStore()})
	ctx := context.Background()

	groups := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	var g errgroup.Group
	for i, group := range groups {
		g.Go(func() error {
			_, err := s.Record(ctx, leaderboard.RecordRequest{Group: group, Score: i})
			return err
		})
	}
	require.NoError(t, g.Wait())

	players, err := s.GetLeaderboard(ctx)
	require.NoError(t, err)
	assert.Len(t, players, len(groups))
}
