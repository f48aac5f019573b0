package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/victornm/teamquiz/internal/archive"
	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/errors"
	"github.com/victornm/teamquiz/internal/leaderboard"
	"github.com/victornm/teamquiz/internal/quizconfig"
	"github.com/victornm/teamquiz/internal/room"
	"github.com/victornm/teamquiz/internal/session"
)

const hostTokenHeader = "X-Host-Token"

type Config struct {
	// Router receives the /api routes.
	Router gin.IRouter

	Room        *room.Service
	Session     *session.Service
	Leaderboard *leaderboard.Service
	Archive     *archive.Service
	QuizConfig  *quizconfig.Service

	// PublicURL is the base URL encoded in join QR codes. When empty it is derived from the request.
	PublicURL string
	Version   string
	Now       func() time.Time
}

type API struct {
	rs *room.Service
	ss *session.Service
	ls *leaderboard.Service
	as *archive.Service
	qs *quizconfig.Service

	publicURL string
	version   string
	now       func() time.Time
}

func New(c Config) *API {
	a := &API{
		rs:        c.Room,
		ss:        c.Session,
		ls:        c.Leaderboard,
		as:        c.Archive,
		qs:        c.QuizConfig,
		publicURL: c.PublicURL,
		version:   c.Version,
		now:       c.Now,
	}

	if a.now == nil {
		a.now = time.Now
	}

	r := c.Router.Group("/api")
	r.GET("/health", a.Health)

	rooms := r.Group("/rooms")
	rooms.POST("", a.CreateRoom)
	rooms.GET("", a.ListRooms)
	rooms.GET("/:roomId", a.GetRoom)
	rooms.DELETE("/:roomId", a.DeleteRoom)
	rooms.POST("/:roomId/join", a.JoinRoom)
	rooms.POST("/:roomId/start", a.StartGame)
	rooms.POST("/:roomId/answer", a.SubmitAnswer)
	rooms.POST("/:roomId/next", a.AdvanceQuestion)
	rooms.POST("/:roomId/next-question", a.AdvanceQuestion)
	rooms.GET("/:roomId/ranking", a.GetRanking)
	rooms.GET("/:roomId/qr", a.JoinCode)

	sessions := r.Group("/sessions")
	sessions.POST("", a.StartSession)
	sessions.PUT("/:id/score", a.UpdateScore)
	sessions.POST("/:id/finish", a.FinishSession)
	sessions.GET("/active/:groupName", a.GetActiveSession)

	r.GET("/players", a.GetLeaderboard)
	r.DELETE("/players", a.ClearLeaderboard)
	r.DELETE("/data", a.ClearAll)
	r.GET("/ranking-history", a.ListHistory)
	r.DELETE("/ranking-history/:id", a.DeleteHistoryEntry)

	r.GET("/quiz-config", a.GetQuizConfig)
	r.POST("/quiz-config", a.SaveQuizConfig)
	r.DELETE("/quiz-config", a.ResetQuizConfig)

	return a
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: a.now().UTC(),
		Version:   a.version,
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// abort writes err as the response. Internal errors are attached to the context for the access
// log and reported without their details.
func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), errorResponse{
		Code:    codes.Code(e.Code).String(),
		Reason:  e.Reason,
		Message: e.Message,
	})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, domain.ErrInvalidArgument.Wrap("invalid request body: %v", err))
		return false
	}
	return true
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
