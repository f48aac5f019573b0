package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/room"
)

// roomView is a room as clients see it: no password, no host token, and no correct answers
// until the game is over.
type roomView struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Status               domain.RoomStatus    `json:"status"`
	Participants         []domain.Participant `json:"participants"`
	ParticipantCount     int                  `json:"participantCount"`
	Questions            []questionView       `json:"questions"`
	CurrentQuestionIndex int                  `json:"currentQuestionIndex"`
	QuestionStartedAt    *time.Time           `json:"questionStartedAt"`
	CreatedAt            time.Time            `json:"createdAt"`
	StartedAt            *time.Time           `json:"startedAt"`
	FinishedAt           *time.Time           `json:"finishedAt"`
	GameResults          []domain.RoomResult  `json:"gameResults"`
}

func newRoomView(rm *domain.Room) roomView {
	return roomView{
		ID:                   rm.ID,
		Name:                 rm.Name,
		Status:               rm.Status,
		Participants:         rm.Participants,
		ParticipantCount:     len(rm.Participants),
		Questions:            newQuestionViews(rm.Questions, rm.Status == domain.RoomStatusFinished),
		CurrentQuestionIndex: rm.CurrentQuestionIndex,
		QuestionStartedAt:    rm.QuestionStartedAt,
		CreatedAt:            rm.CreatedAt,
		StartedAt:            rm.StartedAt,
		FinishedAt:           rm.FinishedAt,
		GameResults:          rm.GameResults,
	}
}

type questionView struct {
	ID            string         `json:"id"`
	Question      string         `json:"question"`
	Options       []string       `json:"options"`
	CorrectAnswer *domain.Choice `json:"correctAnswer,omitempty"`
	Category      string         `json:"category,omitempty"`
	TimeLimit     int            `json:"timeLimit"`
}

func newQuestionViews(questions []domain.Question, revealAnswers bool) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		v := questionView{
			ID:        q.ID,
			Question:  q.Text,
			Options:   q.Options,
			Category:  q.Category,
			TimeLimit: q.TimeLimitSeconds,
		}
		if revealAnswers {
			answer := q.CorrectAnswer
			v.CorrectAnswer = &answer
		}
		views = append(views, v)
	}
	return views
}

type roomSummary struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Status           domain.RoomStatus `json:"status"`
	ParticipantCount int               `json:"participantCount"`
	CreatedAt        time.Time         `json:"createdAt"`
}

type createRoomRequest struct {
	Name     string `json:"roomName" binding:"required"`
	Password string `json:"roomPassword" binding:"required"`
}

type createRoomResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	HostToken string    `json:"hostToken"`
}

func (a *API) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bind(c, &req) {
		return
	}

	rm, err := a.rs.CreateRoom(c.Request.Context(), room.CreateRoomRequest{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, createRoomResponse{
		ID:        rm.ID,
		Name:      rm.Name,
		CreatedAt: rm.CreatedAt,
		HostToken: rm.HostToken,
	})
}

func (a *API) ListRooms(c *gin.Context) {
	rooms, err := a.rs.ListRooms(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	resp := make([]roomSummary, 0, len(rooms))
	for _, rm := range rooms {
		resp = append(resp, roomSummary{
			ID:               rm.ID,
			Name:             rm.Name,
			Status:           rm.Status,
			ParticipantCount: len(rm.Participants),
			CreatedAt:        rm.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (a *API) GetRoom(c *gin.Context) {
	rm, err := a.rs.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, newRoomView(rm))
}

func (a *API) DeleteRoom(c *gin.Context) {
	err := a.rs.DeleteRoom(c.Request.Context(), room.DeleteRoomRequest{
		RoomID:    c.Param("roomId"),
		HostToken: c.GetHeader(hostTokenHeader),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: "room deleted"})
}

type joinRoomRequest struct {
	GroupName string `json:"groupName" binding:"required"`
}

type joinRoomResponse struct {
	Participant domain.Participant `json:"participant"`
	Room        roomSummary        `json:"room"`
}

func (a *API) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if !bind(c, &req) {
		return
	}

	resp, err := a.rs.JoinRoom(c.Request.Context(), room.JoinRoomRequest{
		RoomID:    c.Param("roomId"),
		GroupName: req.GroupName,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, joinRoomResponse{
		Participant: resp.Participant,
		Room: roomSummary{
			ID:               resp.Room.ID,
			Name:             resp.Room.Name,
			Status:           resp.Room.Status,
			ParticipantCount: len(resp.Room.Participants),
			CreatedAt:        resp.Room.CreatedAt,
		},
	})
}

// questionRequest accepts the frontend's question shape, where ids may be numbers.
type questionRequest struct {
	ID            any           `json:"id"`
	Question      string        `json:"question"`
	Options       []string      `json:"options"`
	CorrectAnswer domain.Choice `json:"correctAnswer"`
	Category      string        `json:"category"`
	TimeLimit     int           `json:"timeLimit"`
}

func toQuestions(reqs []questionRequest) []domain.Question {
	questions := make([]domain.Question, 0, len(reqs))
	for _, q := range reqs {
		var id string
		if q.ID != nil {
			id = fmt.Sprint(q.ID)
		}

		questions = append(questions, domain.Question{
			ID:               id,
			Text:             q.Question,
			Options:          q.Options,
			CorrectAnswer:    q.CorrectAnswer,
			Category:         q.Category,
			TimeLimitSeconds: q.TimeLimit,
		})
	}
	return questions
}

type startGameRequest struct {
	Questions []questionRequest `json:"questions" binding:"required"`
}

func (a *API) StartGame(c *gin.Context) {
	var req startGameRequest
	if !bind(c, &req) {
		return
	}

	rm, err := a.rs.StartGame(c.Request.Context(), room.StartGameRequest{
		RoomID:    c.Param("roomId"),
		Questions: toQuestions(req.Questions),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, newRoomView(rm))
}

// submitAnswerRequest takes the answer either as selectedAnswer (an option index) or as answer
// (an option text); selectedAnswer wins when both are present.
type submitAnswerRequest struct {
	ParticipantID  string         `json:"participantId" binding:"required"`
	QuestionIndex  *int           `json:"questionIndex" binding:"required"`
	SelectedAnswer *domain.Choice `json:"selectedAnswer"`
	Answer         *domain.Choice `json:"answer"`
	TimeSpent      int            `json:"timeSpent"`
}

type submitAnswerResponse struct {
	IsCorrect    bool `json:"isCorrect"`
	Points       int  `json:"points"`
	CurrentScore int  `json:"currentScore"`
}

func (a *API) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if !bind(c, &req) {
		return
	}

	value := req.SelectedAnswer
	if value == nil {
		value = req.Answer
	}
	if value == nil {
		abort(c, domain.ErrInvalidArgument.Wrap("selectedAnswer or answer is required"))
		return
	}

	resp, err := a.rs.SubmitAnswer(c.Request.Context(), room.SubmitAnswerRequest{
		RoomID:           c.Param("roomId"),
		ParticipantID:    req.ParticipantID,
		QuestionIndex:    *req.QuestionIndex,
		Value:            *value,
		TimeSpentSeconds: req.TimeSpent,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, submitAnswerResponse{
		IsCorrect:    resp.IsCorrect,
		Points:       resp.Points,
		CurrentScore: resp.CurrentScore,
	})
}

func (a *API) AdvanceQuestion(c *gin.Context) {
	rm, err := a.rs.AdvanceQuestion(c.Request.Context(), room.AdvanceQuestionRequest{
		RoomID:    c.Param("roomId"),
		HostToken: c.GetHeader(hostTokenHeader),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, newRoomView(rm))
}

type rankingResponse struct {
	RoomID               string              `json:"roomId"`
	RoomName             string              `json:"roomName"`
	Status               domain.RoomStatus   `json:"status"`
	CurrentQuestionIndex int                 `json:"currentQuestionIndex"`
	TotalQuestions       int                 `json:"totalQuestions"`
	ParticipantCount     int                 `json:"participantCount"`
	Ranking              []domain.RoomResult `json:"ranking"`
	GameResults          []domain.RoomResult `json:"gameResults"`
}

func (a *API) GetRanking(c *gin.Context) {
	resp, err := a.rs.GetRanking(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		abort(c, err)
		return
	}

	rm := resp.Room
	c.JSON(http.StatusOK, rankingResponse{
		RoomID:               rm.ID,
		RoomName:             rm.Name,
		Status:               rm.Status,
		CurrentQuestionIndex: rm.CurrentQuestionIndex,
		TotalQuestions:       len(rm.Questions),
		ParticipantCount:     len(rm.Participants),
		Ranking:              resp.Ranking,
		GameResults:          rm.GameResults,
	})
}
