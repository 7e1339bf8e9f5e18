package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"run4recht/internal/auth"
	"run4recht/internal/calendar"
	"run4recht/internal/models"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func uintQueryPtr(c *gin.Context, key string) *uint64 {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			return &i
		}
	}
	return nil
}

// idParam parses a positive path id and writes a 400 when it is malformed.
func idParam(c *gin.Context, key string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(key)), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid "+key, nil)
		return 0, false
	}
	return id, true
}

// bindRange reads {"von_datum", "bis_datum"} from the body.
func bindRange(c *gin.Context) (calendar.Range, bool) {
	var r calendar.Range
	if err := c.ShouldBindJSON(&r); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return r, false
	}
	if err := r.Validate(); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return r, false
	}
	return r, true
}

// queryRange reads ?von=&bis= and falls back to def when both are absent.
func queryRange(c *gin.Context, def calendar.Range) (calendar.Range, bool) {
	from, to := strings.TrimSpace(c.Query("von")), strings.TrimSpace(c.Query("bis"))
	if from == "" && to == "" {
		return def, true
	}
	var r calendar.Range
	var err error
	if r.Start, err = calendar.Parse(from); err == nil {
		r.End, err = calendar.Parse(to)
	}
	if err == nil {
		err = r.Validate()
	}
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return r, false
	}
	return r, true
}

// canActFor allows employees to act on their own data and admins on everyone's.
// Without claims (auth disabled) everything is allowed.
func canActFor(c *gin.Context, employeeID uint64) bool {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return true
	}
	if strings.EqualFold(claims.Role, models.RoleAdmin) || claims.EmployeeID == employeeID {
		return true
	}
	Error(c, http.StatusForbidden, "not allowed for this employee", nil)
	return false
}
