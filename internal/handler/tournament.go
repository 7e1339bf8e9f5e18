package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/auth"
	"run4recht/internal/models"
	"run4recht/internal/service"
)

type TournamentHandler struct {
	Service *service.TournamentService
	Logger  *zap.Logger
}

func (h *TournamentHandler) Register(r *gin.Engine) {
	r.GET("/api/turnierinfo", h.get)
	r.GET("/api/turnierinfo/wochen", h.weeks)
	r.PUT("/api/turnierinfo", auth.RequireRole(models.RoleAdmin), h.put)
}

// @Summary Get tournament info
// @Tags tournament
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/turnierinfo [get]
func (h *TournamentHandler) get(c *gin.Context) {
	tw, err := h.Service.Window(c.Request.Context())
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, tw, nil)
}

// @Summary Tournament weeks derived as of today
// @Tags tournament
// @Success 200 {object} apiResponse
// @Router /api/turnierinfo/wochen [get]
func (h *TournamentHandler) weeks(c *gin.Context) {
	_, w, err := h.Service.Windows(c.Request.Context())
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, w, nil)
}

// @Summary Replace tournament info (admin)
// @Tags tournament
// @Accept json
// @Param body body activity.TournamentWindow true "tournament"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/turnierinfo [put]
func (h *TournamentHandler) put(c *gin.Context) {
	var tw activity.TournamentWindow
	if err := c.ShouldBindJSON(&tw); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	saved, err := h.Service.Save(c.Request.Context(), tw)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, saved, nil)
}
