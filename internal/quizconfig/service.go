// Package quizconfig keeps the question selection a host prepares before opening rooms.
package quizconfig

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/lock"
	"github.com/victornm/teamquiz/internal/store"
)

// MinQuestions is the selection size from which a configuration is ready to play.
const MinQuestions = 7

type Config struct {
	Store store.Store
	Locks *lock.Keyed
	Now   func() time.Time
}

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

// Get returns the saved configuration, or the empty default when nothing was saved.
func (s *Service) Get(ctx context.Context) (*domain.QuizConfig, error) {
	configs, err := store.Load[domain.QuizConfig](ctx, s.store, store.KeyQuizConfig)
	if err != nil {
		return nil, fmt.Errorf("get quiz config: %w", err)
	}

	if len(configs) == 0 {
		return defaultConfig(), nil
	}

	c := configs[len(configs)-1]
	if c.SelectedQuestions == nil {
		c.SelectedQuestions = []domain.Question{}
	}
	return &c, nil
}

type SaveRequest struct {
	Questions []domain.Question
}

// Save replaces the selection. Selections below MinQuestions are kept but not valid.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*domain.QuizConfig, error) {
	for i, q := range req.Questions {
		if q.ID == "" {
			return nil, domain.ErrInvalidQuestion.Wrap("question %d: id is required", i)
		}
		if slices.IndexFunc(req.Questions[:i], func(p domain.Question) bool { return p.ID == q.ID }) >= 0 {
			return nil, domain.ErrInvalidQuestion.Wrap("question %d: duplicate id %q", i, q.ID)
		}
	}

	now := s.now()
	c := domain.QuizConfig{
		SelectedQuestions: slices.Clone(req.Questions),
		LastUpdated:       &now,
		MinQuestions:      MinQuestions,
		IsValid:           len(req.Questions) >= MinQuestions,
	}
	if c.SelectedQuestions == nil {
		c.SelectedQuestions = []domain.Question{}
	}

	unlock := s.locks.Lock(store.KeyQuizConfig)
	defer unlock()

	if err := store.Save(ctx, s.store, store.KeyQuizConfig, []domain.QuizConfig{c}); err != nil {
		return nil, fmt.Errorf("save quiz config: %w", err)
	}

	slog.InfoContext(ctx, "quiz config: saved", "questions", len(c.SelectedQuestions), "valid", c.IsValid)
	return &c, nil
}

// Reset drops the saved selection and returns the default.
func (s *Service) Reset(ctx context.Context) (*domain.QuizConfig, error) {
	unlock := s.locks.Lock(store.KeyQuizConfig)
	defer unlock()

	if err := store.Save(ctx, s.store, store.KeyQuizConfig, []domain.QuizConfig{}); err != nil {
		return nil, fmt.Errorf("reset quiz config: %w", err)
	}

	slog.InfoContext(ctx, "quiz config: reset")
	return defaultConfig(), nil
}

func defaultConfig() *domain.QuizConfig {
	return &domain.QuizConfig{
		SelectedQuestions: []domain.Question{},
		MinQuestions:      MinQuestions,
	}
}
