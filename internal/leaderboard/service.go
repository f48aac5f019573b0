package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/lock"
	"github.com/victornm/teamquiz/internal/ranking"
	"github.com/victornm/teamquiz/internal/store"
)

type Config struct {
	Store store.Store
	Locks *lock.Keyed
	Now   func() time.Time
}

// Service owns the Players collection of the standalone mode.
type Service struct {
	store store.Store
	locks *lock.Keyed
	now   func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
		locks: c.Locks,
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

// GetLeaderboard returns all players ranked by score, earliest finisher first on ties.
// Positions are recomputed on every call.
func (s *Service) GetLeaderboard(ctx context.Context) ([]domain.Player, error) {
	players, err := store.Load[domain.Player](ctx, s.store, store.KeyPlayers)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	return Rank(players), nil
}

type RecordRequest struct {
	Group     string
	Score     int
	SessionID string
}

// Record replaces the group's leaderboard entry with a new result and returns it with its position.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*domain.Player, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate player ID: %w", err)
	}

	unlock := s.locks.Lock(store.KeyPlayers)
	defer unlock()

	players, err := store.Load[domain.Player](ctx, s.store, store.KeyPlayers)
	if err != nil {
		return nil, err
	}

	players = slices.DeleteFunc(players, func(p domain.Player) bool { return p.Group == req.Group })
	players = append(players, domain.Player{
		ID:        id.String(),
		Group:     req.Group,
		Score:     req.Score,
		Timestamp: s.now(),
		SessionID: req.SessionID,
	})

	ranked := Rank(players)
	if err := store.Save(ctx, s.store, store.KeyPlayers, ranked); err != nil {
		return nil, err
	}

	i := slices.IndexFunc(ranked, func(p domain.Player) bool { return p.ID == id.String() })
	p := ranked[i]

	slog.InfoContext(ctx, "leaderboard: recorded", "group", p.Group, "score", p.Score, "position", p.Position)

	return &p, nil
}

// Rank sorts players and fills in their positions.
func Rank(players []domain.Player) []domain.Player {
	ranked := ranking.Rank(players,
		func(p domain.Player) int { return p.Score },
		func(p domain.Player) time.Time { return p.Timestamp },
	)

	out := make([]domain.Player, 0, len(ranked))
	for _, r := range ranked {
		p := r.Record
		p.Position = r.Position
		out = append(out, p)
	}
	return out
}
