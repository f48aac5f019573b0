package archive_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/teamquiz/internal/archive"
	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/store"
	"github.com/victornm/teamquiz/internal/store/memory"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// failingStore fails every write to one collection.
type failingStore struct {
	store.Store
	key string
}

func (s failingStore) Write(ctx context.Context, key string, records []store.Record) error {
	if key == s.key {
		return errors.New("disk full")
	}
	return s.Store.Write(ctx, key, records)
}

func seed(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, st, store.KeyPlayers, []domain.Player{
		{ID: "p1", Group: "A", Score: 10, Position: 2, Timestamp: t0.Add(time.Minute)},
		{ID: "p2", Group: "B", Score: 20, Position: 1, Timestamp: t0.Add(2 * time.Minute)},
	}))
	require.NoError(t, store.Save(ctx, st, store.KeySessions, []domain.Session{
		{ID: "s1", GroupName: "A", CurrentScore: 10, StartedAt: t0.Add(10 * time.Second)},
		{ID: "s2", GroupName: "B", CurrentScore: 20, StartedAt: t0},
	}))
}

func makeService(st store.Store) *archive.Service {
	return archive.NewService(archive.Config{
		Store: st,
		Now:   func() time.Time { return t0.Add(time.Hour) },
	})
}

func TestService_ClearLeaderboard(t *testing.T) {
	st := memory.NewStore()
	seed(t, st)
	s := makeService(st)
	ctx := context.Background()

	entry, err := s.ClearLeaderboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, 2, entry.TotalPlayers)
	assert.Equal(t, 2, entry.TotalSessions)
	assert.Equal(t, t0, entry.StartDate, "earliest session start")
	assert.Equal(t, t0.Add(time.Hour), entry.EndDate)
	assert.Equal(t, []domain.PlayerSnapshot{
		{Group: "A", Score: 10, Position: 2, Timestamp: t0.Add(time.Minute)},
		{Group: "B", Score: 20, Position: 1, Timestamp: t0.Add(2 * time.Minute)},
	}, entry.Players)

	players, err := store.Load[domain.Player](ctx, st, store.KeyPlayers)
	require.NoError(t, err)
	assert.Empty(t, players)

	sessions, err := store.Load[domain.Session](ctx, st, store.KeySessions)
	require.NoError(t, err)
	assert.Len(t, sessions, 2, "sessions are kept")

	history, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entry.ID, history[0].ID)
}

func TestService_ClearAll(t *testing.T) {
	st := memory.NewStore()
	seed(t, st)
	s := makeService(st)
	ctx := context.Background()

	entry, err := s.ClearAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)

	for _, key := range []string{store.KeyPlayers, store.KeySessions} {
		records, err := st.Read(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, records, key)
	}
}

func TestService_Clear_NothingToArchive(t *testing.T) {
	st := memory.NewStore()
	s := makeService(st)
	ctx := context.Background()

	entry, err := s.ClearLeaderboard(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)

	history, err := s.ListHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestService_Clear_HistoryWriteFails(t *testing.T) {
	tests := map[string]struct {
		clear func(s *archive.Service) (*domain.HistoryEntry, error)
	}{
		"clear leaderboard": {
			clear: func(s *archive.Service) (*domain.HistoryEntry, error) { return s.ClearLeaderboard(context.Background()) },
		},
		"clear all": {
			clear: func(s *archive.Service) (*domain.HistoryEntry, error) { return s.ClearAll(context.Background()) },
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mem := memory.NewStore()
			seed(t, mem)
			s := makeService(failingStore{Store: mem, key: store.KeyHistory})

			_, err := tt.clear(s)
			require.Error(t, err)

			players, err := store.Load[domain.Player](context.Background(), mem, store.KeyPlayers)
			require.NoError(t, err)
			assert.Len(t, players, 2, "players must survive a failed archive")

			sessions, err := store.Load[domain.Session](context.Background(), mem, store.KeySessions)
			require.NoError(t, err)
			assert.Len(t, sessions, 2)
		})
	}
}

func TestService_ListHistory_NewestFirst(t *testing.T) {
	st := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), st, store.KeyHistory, []domain.HistoryEntry{
		{ID: "old", ArchivedAt: t0},
		{ID: "new", ArchivedAt: t0.Add(time.Hour)},
		{ID: "mid", ArchivedAt: t0.Add(time.Minute)},
	}))
	s := makeService(st)

	history, err := s.ListHistory(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(history))
	for _, e := range history {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestService_DeleteHistoryEntry(t *testing.T) {
	st := memory.NewStore()
	seed(t, st)
	s := makeService(st)
	ctx := context.Background()

	first, err := s.ClearAll(ctx)
	require.NoError(t, err)
	seed(t, st)
	second, err := s.ClearAll(ctx)
	require.NoError(t, err)

	require.NoError(t, s.DeleteHistoryEntry(ctx, first.ID))

	history, err := s.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, second.ID, history[0].ID)

	err = s.DeleteHistoryEntry(ctx, first.ID)
	require.ErrorIs(t, err, domain.ErrHistoryEntryNotFound)
}
