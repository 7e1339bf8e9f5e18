package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"run4recht/internal/service"
)

type ProfileHandler struct {
	Service *service.ProfileService
	Logger  *zap.Logger
}

func (h *ProfileHandler) Register(r *gin.Engine) {
	r.GET("/api/profil/:id", h.get)
	r.PUT("/api/profil/:id", h.update)
}

// @Summary Get employee profile
// @Tags profile
// @Param id path int true "employee id"
// @Success 200 {object} apiResponse
// @Router /api/profil/{id} [get]
func (h *ProfileHandler) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, p, nil)
}

// @Summary Update profile and settings
// @Tags profile
// @Accept json
// @Param id path int true "employee id"
// @Param body body service.ProfileUpdate true "fields to change"
// @Success 200 {object} apiResponse
// @Router /api/profil/{id} [put]
func (h *ProfileHandler) update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok || !canActFor(c, id) {
		return
	}
	var upd service.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	p, err := h.Service.Update(c.Request.Context(), id, upd)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, p, nil)
}
