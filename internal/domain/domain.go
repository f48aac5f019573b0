package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RoomStatus is the lifecycle state of a Room. Transitions only move forward:
// waiting -> playing -> finished.
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// NoQuestion is the CurrentQuestionIndex of a room that is not playing.
const NoQuestion = -1

// Choice is either an index into a question's options or a literal option text.
// It encodes to JSON as a number or a string respectively.
type Choice struct {
	Index   int
	Literal string
	IsIndex bool
}

func IndexChoice(i int) Choice { return Choice{Index: i, IsIndex: true} }

func LiteralChoice(s string) Choice { return Choice{Literal: s} }

func (c Choice) String() string {
	if c.IsIndex {
		return strconv.Itoa(c.Index)
	}
	return strconv.Quote(c.Literal)
}

func (c Choice) MarshalJSON() ([]byte, error) {
	if c.IsIndex {
		return json.Marshal(c.Index)
	}
	return json.Marshal(c.Literal)
}

func (c *Choice) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch v := v.(type) {
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("choice: index must be an integer, got %v", v)
		}
		*c = IndexChoice(int(v))
	case string:
		*c = LiteralChoice(v)
	default:
		return fmt.Errorf("choice: expected a number or a string, got %s", b)
	}

	return nil
}

// Question is immutable once the room that holds it has started.
type Question struct {
	ID               string   `json:"id"`
	Text             string   `json:"question"`
	Options          []string `json:"options"`
	CorrectAnswer    Choice   `json:"correctAnswer"`
	Category         string   `json:"category,omitempty"`
	TimeLimitSeconds int      `json:"timeLimit"`
}

// Room is a multi-team hosted quiz and the unit of locking for every room operation.
type Room struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Password             string        `json:"password"`
	HostToken            string        `json:"hostToken"`
	Status               RoomStatus    `json:"status"`
	Participants         []Participant `json:"participants"`
	Questions            []Question    `json:"questions"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	QuestionStartedAt    *time.Time    `json:"questionStartedAt,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	StartedAt            *time.Time    `json:"startedAt,omitempty"`
	FinishedAt           *time.Time    `json:"finishedAt,omitempty"`
	GameResults          []RoomResult  `json:"gameResults,omitempty"`
}

// Participant returns the participant with the given id.
func (r *Room) Participant(id string) (*Participant, bool) {
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			return &r.Participants[i], true
		}
	}
	return nil, false
}

// ParticipantByGroup returns the participant of the given group.
func (r *Room) ParticipantByGroup(group string) (*Participant, bool) {
	for i := range r.Participants {
		if r.Participants[i].GroupName == group {
			return &r.Participants[i], true
		}
	}
	return nil, false
}

// Participant is a team's membership in one room.
type Participant struct {
	ID        string    `json:"id"`
	GroupName string    `json:"groupName"`
	Score     int       `json:"score"`
	Answers   []Answer  `json:"answers"`
	JoinedAt  time.Time `json:"joinedAt"`
	IsActive  bool      `json:"isActive"`
}

// Answered reports whether the participant already has an answer for the question.
func (p *Participant) Answered(questionIndex int) bool {
	for _, a := range p.Answers {
		if a.QuestionIndex == questionIndex {
			return true
		}
	}
	return false
}

// CorrectAnswers counts the correct answers given so far.
func (p *Participant) CorrectAnswers() int {
	n := 0
	for _, a := range p.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// LastActivity is the time of the latest answer, or the join time when nothing was answered.
func (p *Participant) LastActivity() time.Time {
	last := p.JoinedAt
	for i, a := range p.Answers {
		if i == 0 || a.AnsweredAt.After(last) {
			last = a.AnsweredAt
		}
	}
	return last
}

type Answer struct {
	QuestionIndex    int       `json:"questionIndex"`
	Value            Choice    `json:"answer"`
	IsCorrect        bool      `json:"isCorrect"`
	Points           int       `json:"points"`
	TimeSpentSeconds int       `json:"timeSpent"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

// RoomResult is one line of a room ranking, live or final.
type RoomResult struct {
	ParticipantID  string    `json:"id"`
	GroupName      string    `json:"groupName"`
	Score          int       `json:"score"`
	TotalAnswers   int       `json:"totalAnswers"`
	CorrectAnswers int       `json:"correctAnswers"`
	LastAnswerAt   time.Time `json:"lastAnswerAt"`
	Position       int       `json:"position"`
}

// Session is a single team's standalone practice attempt.
type Session struct {
	ID           string    `json:"id"`
	GroupName    string    `json:"groupName"`
	CurrentScore int       `json:"currentScore"`
	IsActive     bool      `json:"isActive"`
	StartedAt    time.Time `json:"startedAt"`
}

// Player is a leaderboard entry. Position is a cached display field, recomputed on every read.
type Player struct {
	ID        string    `json:"id"`
	Group     string    `json:"group"`
	Score     int       `json:"score"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
}

// HistoryEntry is an archived leaderboard snapshot. It is never modified after creation.
type HistoryEntry struct {
	ID            string            `json:"id"`
	StartDate     time.Time         `json:"startDate"`
	EndDate       time.Time         `json:"endDate"`
	Players       []PlayerSnapshot  `json:"players"`
	Sessions      []SessionSnapshot `json:"sessions"`
	TotalPlayers  int               `json:"totalPlayers"`
	TotalSessions int               `json:"totalSessions"`
	ArchivedAt    time.Time         `json:"archivedAt"`
}

type PlayerSnapshot struct {
	Group     string    `json:"group"`
	Score     int       `json:"score"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionSnapshot struct {
	GroupName    string    `json:"groupName"`
	CurrentScore int       `json:"currentScore"`
	StartedAt    time.Time `json:"startedAt"`
}

// QuizConfig is the host's saved question selection. IsValid is derived from the selection size
// when the selection is saved.
type QuizConfig struct {
	SelectedQuestions []Question `json:"selectedQuestions"`
	LastUpdated       *time.Time `json:"lastUpdated"`
	MinQuestions      int        `json:"minQuestions"`
	IsValid           bool       `json:"isValid"`
}
