package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/session"
)

type startSessionRequest struct {
	GroupName string `json:"groupName" binding:"required"`
}

func (a *API) StartSession(c *gin.Context) {
	var req startSessionRequest
	if !bind(c, &req) {
		return
	}

	ss, err := a.ss.StartSession(c.Request.Context(), session.StartSessionRequest{GroupName: req.GroupName})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, ss)
}

type updateScoreRequest struct {
	Score *int `json:"score" binding:"required"`
}

func (a *API) UpdateScore(c *gin.Context) {
	var req updateScoreRequest
	if !bind(c, &req) {
		return
	}

	ss, err := a.ss.UpdateScore(c.Request.Context(), session.UpdateScoreRequest{
		SessionID: c.Param("id"),
		Score:     *req.Score,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ss)
}

func (a *API) FinishSession(c *gin.Context) {
	p, err := a.ss.FinishSession(c.Request.Context(), session.FinishSessionRequest{SessionID: c.Param("id")})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetActiveSession responds with null when the group has no active session.
func (a *API) GetActiveSession(c *gin.Context) {
	ss, err := a.ss.GetActiveSession(c.Request.Context(), session.GetActiveSessionRequest{GroupName: c.Param("groupName")})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, ss)
}

func (a *API) GetLeaderboard(c *gin.Context) {
	players, err := a.ls.GetLeaderboard(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, players)
}

type clearResponse struct {
	messageResponse
	Entry *domain.HistoryEntry `json:"entry"`
}

func (a *API) ClearLeaderboard(c *gin.Context) {
	entry, err := a.as.ClearLeaderboard(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, clearResponse{
		messageResponse: messageResponse{Success: true, Message: "leaderboard cleared"},
		Entry:           entry,
	})
}

func (a *API) ClearAll(c *gin.Context) {
	entry, err := a.as.ClearAll(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, clearResponse{
		messageResponse: messageResponse{Success: true, Message: "players and sessions cleared"},
		Entry:           entry,
	})
}

func (a *API) ListHistory(c *gin.Context) {
	history, err := a.as.ListHistory(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (a *API) DeleteHistoryEntry(c *gin.Context) {
	if err := a.as.DeleteHistoryEntry(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: "history entry deleted"})
}
