package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/service"
)

// IdempotencyHeader carries the batch key of a delta upload.
const IdempotencyHeader = "Idempotency-Key"

type StatisticsHandler struct {
	Service *service.StatisticsService
	Logger  *zap.Logger
}

func (h *StatisticsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/statistiken")
	group.PUT("", h.upsert)
	group.PUT("/zeitraum", h.upsertPeriod)
	group.POST("/delta", h.applyDelta)
	group.GET("/mitarbeiter/:id", h.listByEmployee)
	group.POST("/mitarbeiter/:id/zeitraum", h.employeeRange)
	group.GET("/mitarbeiter/:id/aktueller-monat", h.currentMonth)
	group.GET("/mitarbeiter/:id/uebersicht", h.overview)
	group.GET("/dienstellen/:id", h.departmentDaily)
	group.POST("/dienstellen/:id/zeitraum", h.departmentTotals)
	group.POST("/dienstellen/:id/zeitraumall", h.departmentRangeDaily)
}

// @Summary Overwrite the statistic of one day
// @Tags statistics
// @Accept json
// @Param body body activity.StatisticRecord true "record"
// @Success 200 {object} apiResponse
// @Router /api/statistiken [put]
func (h *StatisticsHandler) upsert(c *gin.Context) {
	var rec activity.StatisticRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !ownedBy(c, rec.EmployeeID) {
		return
	}
	saved, err := h.Service.Upsert(c.Request.Context(), rec)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, saved, nil)
}

// @Summary Spread a step count over a period
// @Tags statistics
// @Accept json
// @Param body body activity.PeriodStatistic true "period"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/zeitraum [put]
func (h *StatisticsHandler) upsertPeriod(c *gin.Context) {
	var p activity.PeriodStatistic
	if err := c.ShouldBindJSON(&p); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !ownedBy(c, p.EmployeeID) {
		return
	}
	saved, err := h.Service.UpsertPeriod(c.Request.Context(), p)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, saved, map[string]any{"total": len(saved)})
}

// @Summary Add a step delta to a day (idempotent per batch key)
// @Tags statistics
// @Accept json
// @Param Idempotency-Key header string true "batch key"
// @Param body body activity.StatisticRecord true "delta record"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/delta [post]
func (h *StatisticsHandler) applyDelta(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if key == "" {
		Error(c, http.StatusBadRequest, "missing "+IdempotencyHeader+" header", nil)
		return
	}
	var rec activity.StatisticRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !ownedBy(c, rec.EmployeeID) {
		return
	}
	saved, applied, err := h.Service.ApplyDelta(c.Request.Context(), rec, key)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, saved, map[string]any{"applied": applied})
}

// @Summary Statistics of an employee
// @Tags statistics
// @Param id path int true "employee id"
// @Param von query string false "start date (default: month start)"
// @Param bis query string false "end date"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/mitarbeiter/{id} [get]
func (h *StatisticsHandler) listByEmployee(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, ok := queryRange(c, calendar.Month(h.Service.Tournament.Today()))
	if !ok {
		return
	}
	h.respondRecords(c, func() ([]activity.StatisticRecord, error) {
		return h.Service.ListByEmployee(c.Request.Context(), int64(id), r)
	})
}

// @Summary Statistics of an employee in a range
// @Tags statistics
// @Accept json
// @Param id path int true "employee id"
// @Param body body calendar.Range true "range"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/mitarbeiter/{id}/zeitraum [post]
func (h *StatisticsHandler) employeeRange(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, ok := bindRange(c)
	if !ok {
		return
	}
	h.respondRecords(c, func() ([]activity.StatisticRecord, error) {
		return h.Service.ListByEmployee(c.Request.Context(), int64(id), r)
	})
}

// @Summary Statistics of an employee in the current month
// @Tags statistics
// @Param id path int true "employee id"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/mitarbeiter/{id}/aktueller-monat [get]
func (h *StatisticsHandler) currentMonth(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.respondRecords(c, func() ([]activity.StatisticRecord, error) {
		return h.Service.CurrentMonth(c.Request.Context(), int64(id))
	})
}

// @Summary Weekly and whole-tournament overview of an employee
// @Tags statistics
// @Param id path int true "employee id"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/statistiken/mitarbeiter/{id}/uebersicht [get]
func (h *StatisticsHandler) overview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ov, err := h.Service.Overview(c.Request.Context(), int64(id))
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, ov, nil)
}

// @Summary Daily statistics of a department
// @Tags statistics
// @Param id path int true "department id"
// @Param von query string false "start date (default: month start)"
// @Param bis query string false "end date"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/dienstellen/{id} [get]
func (h *StatisticsHandler) departmentDaily(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, ok := queryRange(c, calendar.Month(h.Service.Tournament.Today()))
	if !ok {
		return
	}
	h.respondRecords(c, func() ([]activity.StatisticRecord, error) {
		return h.Service.DepartmentDaily(c.Request.Context(), int64(id), r)
	})
}

// @Summary Per-employee totals of a department in a range
// @Tags statistics
// @Accept json
// @Param id path int true "department id"
// @Param body body calendar.Range true "range"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/dienstellen/{id}/zeitraum [post]
func (h *StatisticsHandler) departmentTotals(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, ok := bindRange(c)
	if !ok {
		return
	}
	h.respondRecords(c, func() ([]activity.StatisticRecord, error) {
		return h.Service.DepartmentTotals(c.Request.Context(), int64(id), r)
	})
}

// @Summary Daily statistics of a department in a range
// @Tags statistics
// @Accept json
// @Param id path int true "department id"
// @Param body body calendar.Range true "range"
// @Success 200 {object} apiResponse
// @Router /api/statistiken/dienstellen/{id}/zeitraumall [post]
func (h *StatisticsHandler) departmentRangeDaily(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, ok := bindRange(c)
	if !ok {
		return
	}
	h.respondRecords(c, func() ([]activity.StatisticRecord, error) {
		return h.Service.DepartmentDaily(c.Request.Context(), int64(id), r)
	})
}

func (h *StatisticsHandler) respondRecords(c *gin.Context, fetch func() ([]activity.StatisticRecord, error)) {
	items, err := fetch()
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// ownedBy rejects a missing employee id with 400 and a foreign one with 403.
func ownedBy(c *gin.Context, employeeID int64) bool {
	if employeeID <= 0 {
		Error(c, http.StatusBadRequest, "mitarbeiter_id required", nil)
		return false
	}
	return canActFor(c, uint64(employeeID))
}
