package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"run4recht/internal/service"
)

type AuthHandler struct {
	Service *service.AuthService
	Logger  *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"passwort"`
}

func (h *AuthHandler) Register(r *gin.Engine) {
	r.POST("/api/auth/login", h.login)
}

// @Summary Login with e-mail and password
// @Tags auth
// @Accept json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		Error(c, http.StatusBadRequest, "email and passwort required", nil)
		return
	}
	res, err := h.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, res, nil)
}
