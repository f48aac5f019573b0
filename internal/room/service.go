package room

import (
	"cmp"
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/event"
	"github.com/victornm/teamquiz/internal/lock"
	"github.com/victornm/teamquiz/internal/ranking"
	"github.com/victornm/teamquiz/internal/scoring"
	"github.com/victornm/teamquiz/internal/store"
)

const defaultTimeLimit = 40 * time.Second

type Config struct {
	Store    store.Store
	Locks    *lock.Keyed
	EventBus *event.Bus

	// EnforceTimeLimit rejects answers given after the current question's time limit,
	// or to any question other than the current one.
	EnforceTimeLimit bool
	// DefaultTimeLimit applies to questions started without a time limit.
	DefaultTimeLimit time.Duration

	Now func() time.Time
}

// Service runs the room lifecycle: waiting -> playing -> finished.
// Every mutation of a room is one critical section keyed by the room id.
type Service struct {
	repo  *repository
	locks *lock.Keyed
	eb    *event.Bus

	enforceTimeLimit bool
	defaultTimeLimit time.Duration
	now              func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		repo:             &repository{store: c.Store, locks: c.Locks},
		locks:            c.Locks,
		eb:               c.EventBus,
		enforceTimeLimit: c.EnforceTimeLimit,
		defaultTimeLimit: c.DefaultTimeLimit,
		now:              c.Now,
	}

	if s.locks == nil {
		s.locks = lock.NewKeyed()
		s.repo.locks = s.locks
	}
	if s.defaultTimeLimit <= 0 {
		s.defaultTimeLimit = defaultTimeLimit
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

type CreateRoomRequest struct {
	Name     string
	Password string
}

// CreateRoom creates a waiting room. The returned room carries the host token that
// AdvanceQuestion and DeleteRoom require.
func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (*domain.Room, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Password == "" {
		return nil, domain.ErrInvalidArgument.Wrap("room name and password are required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate room ID: %w", err)
	}

	rm := domain.Room{
		ID:                   id.String(),
		Name:                 name,
		Password:             req.Password,
		HostToken:            uuid.NewString(),
		Status:               domain.RoomStatusWaiting,
		Participants:         []domain.Participant{},
		Questions:            []domain.Question{},
		CurrentQuestionIndex: domain.NoQuestion,
		CreatedAt:            s.now(),
	}

	err = s.repo.insert(ctx, rm, func(rooms []domain.Room) error {
		for _, other := range rooms {
			if other.Name == name && other.Status != domain.RoomStatusFinished {
				return domain.ErrDuplicateRoomName.Wrap("an active room is already named %q", name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "room: created", "room", rm.ID, "name", rm.Name)
	s.eb.Publish(ctx, domain.EventRoomCreated{Room: rm})

	return &rm, nil
}

type JoinRoomRequest struct {
	RoomID    string
	GroupName string
}

type JoinRoomResponse struct {
	Participant domain.Participant
	Room        domain.Room
	// Rejoined is set when the group was already in the room.
	Rejoined bool
}

// JoinRoom adds a group to a room. Joining again with the same group name returns the
// existing participant.
func (s *Service) JoinRoom(ctx context.Context, req JoinRoomRequest) (*JoinRoomResponse, error) {
	group := strings.TrimSpace(req.GroupName)
	if group == "" {
		return nil, domain.ErrInvalidArgument.Wrap("group name is required")
	}

	unlock := s.locks.Lock(roomKey(req.RoomID))
	defer unlock()

	rm, err := s.repo.get(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	if p, ok := rm.ParticipantByGroup(group); ok {
		return &JoinRoomResponse{Participant: *p, Room: *rm, Rejoined: true}, nil
	}

	if rm.Status == domain.RoomStatusFinished {
		return nil, domain.ErrInvalidTransition.Wrap("room %s is finished", rm.ID)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate participant ID: %w", err)
	}

	p := domain.Participant{
		ID:        id.String(),
		GroupName: group,
		Score:     0,
		Answers:   []domain.Answer{},
		JoinedAt:  s.now(),
		IsActive:  true,
	}
	rm.Participants = append(rm.Participants, p)

	if err := s.repo.update(ctx, *rm); err != nil {
		return nil, err
	}

	return &JoinRoomResponse{Participant: p, Room: *rm}, nil
}

type StartGameRequest struct {
	RoomID    string
	Questions []domain.Question
}

func (s *Service) StartGame(ctx context.Context, req StartGameRequest) (*domain.Room, error) {
	unlock := s.locks.Lock(roomKey(req.RoomID))
	defer unlock()

	rm, err := s.repo.get(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	if rm.Status != domain.RoomStatusWaiting {
		return nil, domain.ErrInvalidTransition.Wrap("cannot start room %s: status is %s", rm.ID, rm.Status)
	}

	if len(rm.Participants) == 0 {
		return nil, domain.ErrNoParticipants.Wrap("cannot start room %s: no participants", rm.ID)
	}

	questions, err := s.prepareQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rm.Status = domain.RoomStatusPlaying
	rm.Questions = questions
	rm.CurrentQuestionIndex = 0
	rm.StartedAt = &now
	rm.QuestionStartedAt = &now

	if err := s.repo.update(ctx, *rm); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "room: game started", "room", rm.ID, "questions", len(questions), "participants", len(rm.Participants))
	s.eb.Publish(ctx, domain.EventRoomStarted{Room: *rm})

	return rm, nil
}

func (s *Service) prepareQuestions(in []domain.Question) ([]domain.Question, error) {
	if len(in) == 0 {
		return nil, domain.ErrNoQuestions.Wrap("at least one question is required")
	}

	out := make([]domain.Question, 0, len(in))
	for i, q := range in {
		if len(q.Options) < 2 {
			return nil, domain.ErrInvalidQuestion.Wrap("question %d: at least 2 options are required", i)
		}

		if q.CorrectAnswer.IsIndex {
			if q.CorrectAnswer.Index < 0 || q.CorrectAnswer.Index >= len(q.Options) {
				return nil, domain.ErrInvalidQuestion.Wrap("question %d: correct answer %d is not an option", i, q.CorrectAnswer.Index)
			}
		} else if q.CorrectAnswer.Literal == "" {
			return nil, domain.ErrInvalidQuestion.Wrap("question %d: correct answer is required", i)
		}

		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.TimeLimitSeconds <= 0 {
			q.TimeLimitSeconds = int(s.defaultTimeLimit / time.Second)
		}
		q.Options = slices.Clone(q.Options)

		out = append(out, q)
	}

	return out, nil
}

type SubmitAnswerRequest struct {
	RoomID           string
	ParticipantID    string
	QuestionIndex    int
	Value            domain.Choice
	TimeSpentSeconds int
}

type SubmitAnswerResponse struct {
	IsCorrect    bool
	Points       int
	CurrentScore int
}

// SubmitAnswer records a participant's answer. The duplicate check and the write happen in
// the same critical section, so concurrent submissions for one question record one answer.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if req.TimeSpentSeconds < 0 {
		return nil, domain.ErrInvalidArgument.Wrap("time spent must not be negative")
	}

	unlock := s.locks.Lock(roomKey(req.RoomID))
	defer unlock()

	rm, err := s.repo.get(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	if rm.Status != domain.RoomStatusPlaying {
		return nil, domain.ErrInvalidTransition.Wrap("cannot answer in room %s: status is %s", rm.ID, rm.Status)
	}

	p, ok := rm.Participant(req.ParticipantID)
	if !ok {
		return nil, domain.ErrParticipantNotFound.Wrap("participant not found: room=%s participant=%s", rm.ID, req.ParticipantID)
	}

	if req.QuestionIndex < 0 || req.QuestionIndex >= len(rm.Questions) {
		return nil, domain.ErrQuestionNotFound.Wrap("question not found: room=%s index=%d", rm.ID, req.QuestionIndex)
	}

	if p.Answered(req.QuestionIndex) {
		return nil, domain.ErrDuplicateAnswer.Wrap("answer is already submitted: room=%s participant=%s question=%d", rm.ID, p.ID, req.QuestionIndex)
	}

	q := rm.Questions[req.QuestionIndex]
	now := s.now()

	if s.enforceTimeLimit {
		if err := s.checkDeadline(rm, q, req.QuestionIndex, now); err != nil {
			return nil, err
		}
	}

	isCorrect, points := scoring.Score(q, req.Value)
	a := domain.Answer{
		QuestionIndex:    req.QuestionIndex,
		Value:            req.Value,
		IsCorrect:        isCorrect,
		Points:           points,
		TimeSpentSeconds: req.TimeSpentSeconds,
		AnsweredAt:       now,
	}
	p.Answers = append(p.Answers, a)
	p.Score += points

	if err := s.repo.update(ctx, *rm); err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventAnswerSubmitted{RoomID: rm.ID, ParticipantID: p.ID, Answer: a})

	return &SubmitAnswerResponse{
		IsCorrect:    isCorrect,
		Points:       points,
		CurrentScore: p.Score,
	}, nil
}

func (s *Service) checkDeadline(rm *domain.Room, q domain.Question, index int, now time.Time) error {
	if index != rm.CurrentQuestionIndex {
		return domain.ErrAnswerExpired.Wrap("question %d is not the current question of room %s", index, rm.ID)
	}

	if rm.QuestionStartedAt == nil {
		return nil
	}

	limit := time.Duration(q.TimeLimitSeconds) * time.Second
	if elapsed := now.Sub(*rm.QuestionStartedAt); elapsed > limit {
		return domain.ErrAnswerExpired.Wrap("time limit of %s for question %d is over", limit, index)
	}

	return nil
}

type AdvanceQuestionRequest struct {
	RoomID    string
	HostToken string
}

// AdvanceQuestion moves to the next question, or finishes the game after the last one.
// The final results are computed exactly once, on the transition to finished.
func (s *Service) AdvanceQuestion(ctx context.Context, req AdvanceQuestionRequest) (*domain.Room, error) {
	unlock := s.locks.Lock(roomKey(req.RoomID))
	defer unlock()

	rm, err := s.repo.get(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	if !isHost(rm, req.HostToken) {
		return nil, domain.ErrForbidden.Wrap("only the host can advance room %s", rm.ID)
	}

	if rm.Status != domain.RoomStatusPlaying {
		return nil, domain.ErrInvalidTransition.Wrap("cannot advance room %s: status is %s", rm.ID, rm.Status)
	}

	now := s.now()
	next := rm.CurrentQuestionIndex + 1

	if next < len(rm.Questions) {
		rm.CurrentQuestionIndex = next
		rm.QuestionStartedAt = &now
	} else {
		rm.Status = domain.RoomStatusFinished
		rm.CurrentQuestionIndex = domain.NoQuestion
		rm.QuestionStartedAt = nil
		rm.FinishedAt = &now
		rm.GameResults = Standings(rm.Participants)
	}

	if err := s.repo.update(ctx, *rm); err != nil {
		return nil, err
	}

	if rm.Status == domain.RoomStatusFinished {
		slog.InfoContext(ctx, "room: game finished", "room", rm.ID, "participants", len(rm.Participants))
		s.eb.Publish(ctx, domain.EventRoomFinished{Room: *rm})
	}

	return rm, nil
}

type DeleteRoomRequest struct {
	RoomID    string
	HostToken string
}

// DeleteRoom removes the whole room, in any state.
func (s *Service) DeleteRoom(ctx context.Context, req DeleteRoomRequest) error {
	unlock := s.locks.Lock(roomKey(req.RoomID))
	defer unlock()

	rm, err := s.repo.get(ctx, req.RoomID)
	if err != nil {
		return err
	}

	if !isHost(rm, req.HostToken) {
		return domain.ErrForbidden.Wrap("only the host can delete room %s", rm.ID)
	}

	if err := s.repo.delete(ctx, rm.ID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "room: deleted", "room", rm.ID, "name", rm.Name)
	return nil
}

func (s *Service) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.repo.get(ctx, id)
}

// ListRooms returns the rooms that are not finished, newest first.
func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.repo.list(ctx)
	if err != nil {
		return nil, err
	}

	active := slices.DeleteFunc(rooms, func(rm domain.Room) bool {
		return rm.Status == domain.RoomStatusFinished
	})
	slices.SortStableFunc(active, func(a, b domain.Room) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	return active, nil
}

type RankingResponse struct {
	Room    domain.Room
	Ranking []domain.RoomResult
}

// GetRanking computes the live ranking of a room.
func (s *Service) GetRanking(ctx context.Context, id string) (*RankingResponse, error) {
	rm, err := s.repo.get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RankingResponse{
		Room:    *rm,
		Ranking: Standings(rm.Participants),
	}, nil
}

// Standings ranks participants by score, then by who answered last the earliest.
// Live rankings and final results use the same order.
func Standings(participants []domain.Participant) []domain.RoomResult {
	ranked := ranking.Rank(participants,
		func(p domain.Participant) int { return p.Score },
		func(p domain.Participant) time.Time { return p.LastActivity() },
	)

	results := make([]domain.RoomResult, 0, len(ranked))
	for _, r := range ranked {
		p := r.Record
		results = append(results, domain.RoomResult{
			ParticipantID:  p.ID,
			GroupName:      p.GroupName,
			Score:          p.Score,
			TotalAnswers:   len(p.Answers),
			CorrectAnswers: p.CorrectAnswers(),
			LastAnswerAt:   p.LastActivity(),
			Position:       r.Position,
		})
	}

	return results
}

// isHost compares the host token. Rooms are guarded by this token only; there is no user identity.
func isHost(rm *domain.Room, token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(rm.HostToken), []byte(token)) == 1
}

func roomKey(id string) string {
	return "room:" + id
}
