// Package archive snapshots the standalone leaderboard into the ranking history before it is cleared.
package archive

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/event"
	"github.com/victornm/teamquiz/internal/lock"
	"github.com/victornm/teamquiz/internal/store"
)

type Config struct {
	Store    store.Store
	Locks    *lock.Keyed
	EventBus *event.Bus
	Now      func() time.Time
}

type Service struct {
	store store.Store
	locks *lock.Keyed
	eb    *event.Bus
	now   func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
		locks: c.Locks,
		eb:    c.EventBus,
		now:   c.Now,
	}

	if s.locks == nil {
		s.locks = lock.NewKeyed()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// ClearLeaderboard archives the current players and sessions and then empties the players.
func (s *Service) ClearLeaderboard(ctx context.Context) (*domain.HistoryEntry, error) {
	return s.clear(ctx, false)
}

// ClearAll archives like ClearLeaderboard and then empties both players and sessions.
func (s *Service) ClearAll(ctx context.Context) (*domain.HistoryEntry, error) {
	return s.clear(ctx, true)
}

// clear holds the sessions, players and history locks, in that order, for the whole operation.
// The history entry is written before anything is truncated; if that write fails nothing is cleared.
// The returned entry is nil when there was nothing to archive.
func (s *Service) clear(ctx context.Context, withSessions bool) (*domain.HistoryEntry, error) {
	for _, key := range []string{store.KeySessions, store.KeyPlayers, store.KeyHistory} {
		unlock := s.locks.Lock(key)
		defer unlock()
	}

	players, err := store.Load[domain.Player](ctx, s.store, store.KeyPlayers)
	if err != nil {
		return nil, err
	}

	sessions, err := store.Load[domain.Session](ctx, s.store, store.KeySessions)
	if err != nil {
		return nil, err
	}

	var entry *domain.HistoryEntry
	if len(players) > 0 || len(sessions) > 0 {
		entry, err = s.snapshot(players, sessions)
		if err != nil {
			return nil, err
		}

		if err := s.appendHistory(ctx, *entry); err != nil {
			return nil, fmt.Errorf("archive leaderboard: %w", err)
		}

		slog.InfoContext(ctx, "archive: leaderboard archived", "entry", entry.ID, "players", entry.TotalPlayers, "sessions", entry.TotalSessions)
	}

	if err := store.Save(ctx, s.store, store.KeyPlayers, []domain.Player{}); err != nil {
		return nil, err
	}

	if withSessions {
		if err := store.Save(ctx, s.store, store.KeySessions, []domain.Session{}); err != nil {
			return nil, err
		}
	}

	s.eb.Publish(ctx, domain.EventLeaderboardCleared{Entry: entry, SessionsCleared: withSessions})

	return entry, nil
}

func (s *Service) snapshot(players []domain.Player, sessions []domain.Session) (*domain.HistoryEntry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate history entry ID: %w", err)
	}

	now := s.now()
	e := &domain.HistoryEntry{
		ID:            id.String(),
		StartDate:     now,
		EndDate:       now,
		Players:       make([]domain.PlayerSnapshot, 0, len(players)),
		Sessions:      make([]domain.SessionSnapshot, 0, len(sessions)),
		TotalPlayers:  len(players),
		TotalSessions: len(sessions),
		ArchivedAt:    now,
	}

	for _, p := range players {
		e.Players = append(e.Players, domain.PlayerSnapshot{
			Group:     p.Group,
			Score:     p.Score,
			Position:  p.Position,
			Timestamp: p.Timestamp,
		})
	}

	for i, ss := range sessions {
		e.Sessions = append(e.Sessions, domain.SessionSnapshot{
			GroupName:    ss.GroupName,
			CurrentScore: ss.CurrentScore,
			StartedAt:    ss.StartedAt,
		})

		if i == 0 || ss.StartedAt.Before(e.StartDate) {
			e.StartDate = ss.StartedAt
		}
	}

	return e, nil
}

func (s *Service) appendHistory(ctx context.Context, e domain.HistoryEntry) error {
	history, err := store.Load[domain.HistoryEntry](ctx, s.store, store.KeyHistory)
	if err != nil {
		return err
	}

	return store.Save(ctx, s.store, store.KeyHistory, append(history, e))
}

// ListHistory returns every archived entry, most recently archived first.
func (s *Service) ListHistory(ctx context.Context) ([]domain.HistoryEntry, error) {
	history, err := store.Load[domain.HistoryEntry](ctx, s.store, store.KeyHistory)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(history, func(a, b domain.HistoryEntry) int {
		return cmp.Compare(b.ArchivedAt.UnixNano(), a.ArchivedAt.UnixNano())
	})

	return history, nil
}

func (s *Service) DeleteHistoryEntry(ctx context.Context, id string) error {
	unlock := s.locks.Lock(store.KeyHistory)
	defer unlock()

	history, err := store.Load[domain.HistoryEntry](ctx, s.store, store.KeyHistory)
	if err != nil {
		return err
	}

	kept := slices.DeleteFunc(slices.Clone(history), func(e domain.HistoryEntry) bool { return e.ID == id })
	if len(kept) == len(history) {
		return domain.ErrHistoryEntryNotFound.Wrap("history entry not found: id=%s", id)
	}

	return store.Save(ctx, s.store, store.KeyHistory, kept)
}
