package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/quizconfig"
)

type saveQuizConfigRequest struct {
	SelectedQuestions []questionRequest `json:"selectedQuestions" binding:"required"`
}

type quizConfigResponse struct {
	Message string             `json:"message"`
	Config  *domain.QuizConfig `json:"config"`
}

func (a *API) GetQuizConfig(c *gin.Context) {
	qc, err := a.qs.Get(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, qc)
}

func (a *API) SaveQuizConfig(c *gin.Context) {
	var req saveQuizConfigRequest
	if !bind(c, &req) {
		return
	}

	qc, err := a.qs.Save(c.Request.Context(), quizconfig.SaveRequest{Questions: toQuestions(req.SelectedQuestions)})
	if err != nil {
		abort(c, err)
		return
	}

	msg := "temporary selection saved"
	if qc.IsValid {
		msg = "quiz configuration saved"
	}

	c.JSON(http.StatusOK, quizConfigResponse{Message: msg, Config: qc})
}

func (a *API) ResetQuizConfig(c *gin.Context) {
	qc, err := a.qs.Reset(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, quizConfigResponse{Message: "quiz configuration reset", Config: qc})
}
