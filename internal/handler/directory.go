package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"run4recht/internal/service"
)

type DirectoryHandler struct {
	Service *service.DirectoryService
	Logger  *zap.Logger
}

func (h *DirectoryHandler) Register(r *gin.Engine) {
	r.GET("/api/gerichte", h.listCourts)
	r.GET("/api/dienstellen", h.listDepartments)
	r.GET("/api/dienstellen/:id", h.getDepartment)
	r.GET("/api/mitarbeiter", h.searchEmployees)
	r.GET("/api/mitarbeiter/dienstelle/:id", h.listEmployeesOfDepartment)
}

// @Summary List courts
// @Tags directory
// @Success 200 {object} apiResponse
// @Router /api/gerichte [get]
func (h *DirectoryHandler) listCourts(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Service.Courts(c.Request.Context())
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary List departments
// @Tags directory
// @Param gericht_id query int false "court id"
// @Success 200 {object} apiResponse
// @Router /api/dienstellen [get]
func (h *DirectoryHandler) listDepartments(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Service.Departments(c.Request.Context(), uintQueryPtr(c, "gericht_id"))
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Get department
// @Tags directory
// @Param id path int true "department id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/dienstellen/{id} [get]
func (h *DirectoryHandler) getDepartment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.Service.Department(c.Request.Context(), id)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Search employees by name
// @Tags directory
// @Param q query string false "fuzzy name query"
// @Param limit query int false "max results"
// @Success 200 {object} apiResponse
// @Router /api/mitarbeiter [get]
func (h *DirectoryHandler) searchEmployees(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Service.Search(c.Request.Context(), c.Query("q"), intQuery(c, "limit", 50))
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary List employees of a department
// @Tags directory
// @Param id path int true "department id"
// @Success 200 {object} apiResponse
// @Router /api/mitarbeiter/dienstelle/{id} [get]
func (h *DirectoryHandler) listEmployeesOfDepartment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.Service.EmployeesOf(c.Request.Context(), id)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}
