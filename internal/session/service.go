package session

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/event"
	"github.com/victornm/teamquiz/internal/leaderboard"
	"github.com/victornm/teamquiz/internal/lock"
	"github.com/victornm/teamquiz/internal/store"
)

var groupNamePattern = regexp.MustCompile(`^[A-Z0-9\s]+$`)

type Config struct {
	Store       store.Store
	Locks       *lock.Keyed
	Leaderboard *leaderboard.Service
	EventBus    *event.Bus
	Now         func() time.Time
}

// Service runs standalone practice sessions. The Sessions collection is one aggregate;
// finishing a session also takes the Players lock, always after the Sessions lock.
type Service struct {
	store       store.Store
	locks       *lock.Keyed
	leaderboard *leaderboard.Service
	eb          *event.Bus
	now         func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store:       c.Store,
		locks:       c.Locks,
		leaderboard: c.Leaderboard,
		eb:          c.EventBus,
		now:         c.Now,
	}

	if s.locks == nil {
		s.locks = lock.NewKeyed()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

type StartSessionRequest struct {
	GroupName string
}

// StartSession creates the active session of a group and deactivates its previous ones.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest) (*domain.Session, error) {
	group := strings.TrimSpace(req.GroupName)
	if !groupNamePattern.MatchString(group) {
		return nil, domain.ErrInvalidGroupName.Wrap("invalid group name %q: only uppercase letters, digits and spaces are allowed", req.GroupName)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	ss := domain.Session{
		ID:           id.String(),
		GroupName:    group,
		CurrentScore: 0,
		IsActive:     true,
		StartedAt:    s.now(),
	}

	err = s.mutate(ctx, func(sessions []domain.Session) ([]domain.Session, error) {
		for i := range sessions {
			if sessions[i].GroupName == group {
				sessions[i].IsActive = false
			}
		}
		return append(sessions, ss), nil
	})
	if err != nil {
		return nil, err
	}

	return &ss, nil
}

type UpdateScoreRequest struct {
	SessionID string
	Score     int
}

// UpdateScore overwrites the running total of a session.
func (s *Service) UpdateScore(ctx context.Context, req UpdateScoreRequest) (*domain.Session, error) {
	if req.Score < 0 {
		return nil, domain.ErrInvalidArgument.Wrap("score must not be negative")
	}

	var updated domain.Session
	err := s.mutate(ctx, func(sessions []domain.Session) ([]domain.Session, error) {
		i, err := find(sessions, req.SessionID)
		if err != nil {
			return nil, err
		}

		sessions[i].CurrentScore = req.Score
		updated = sessions[i]
		return sessions, nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

type FinishSessionRequest struct {
	SessionID string
}

// FinishSession deactivates the session and records its score on the leaderboard.
//
// The player is recorded before the session is saved. If that save fails the entry stays on the
// leaderboard and the session stays active; finishing again replaces the entry. session.finished
// is only published once both writes succeeded.
func (s *Service) FinishSession(ctx context.Context, req FinishSessionRequest) (*domain.Player, error) {
	var player *domain.Player
	err := s.mutate(ctx, func(sessions []domain.Session) ([]domain.Session, error) {
		i, err := find(sessions, req.SessionID)
		if err != nil {
			return nil, err
		}

		ss := sessions[i]
		player, err = s.leaderboard.Record(ctx, leaderboard.RecordRequest{
			Group:     ss.GroupName,
			Score:     ss.CurrentScore,
			SessionID: ss.ID,
		})
		if err != nil {
			return nil, err
		}

		sessions[i].IsActive = false
		return sessions, nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "session: finished", "session", req.SessionID, "group", player.Group, "score", player.Score)
	s.eb.Publish(ctx, domain.EventSessionFinished{Player: *player})

	return player, nil
}

type GetActiveSessionRequest struct {
	GroupName string
}

// GetActiveSession returns the active session of a group, or nil when there is none.
func (s *Service) GetActiveSession(ctx context.Context, req GetActiveSessionRequest) (*domain.Session, error) {
	sessions, err := store.Load[domain.Session](ctx, s.store, store.KeySessions)
	if err != nil {
		return nil, err
	}

	group := strings.TrimSpace(req.GroupName)
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].GroupName == group && sessions[i].IsActive {
			return &sessions[i], nil
		}
	}

	return nil, nil
}

func (s *Service) mutate(ctx context.Context, fn func([]domain.Session) ([]domain.Session, error)) error {
	unlock := s.locks.Lock(store.KeySessions)
	defer unlock()

	sessions, err := store.Load[domain.Session](ctx, s.store, store.KeySessions)
	if err != nil {
		return err
	}

	sessions, err = fn(sessions)
	if err != nil {
		return err
	}

	return store.Save(ctx, s.store, store.KeySessions, sessions)
}

func find(sessions []domain.Session, id string) (int, error) {
	i := slices.IndexFunc(sessions, func(ss domain.Session) bool { return ss.ID == id })
	if i < 0 {
		return -1, domain.ErrSessionNotFound.Wrap("session not found: id=%s", id)
	}
	return i, nil
}
