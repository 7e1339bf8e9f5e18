package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"run4recht/internal/activity"
	"run4recht/internal/calendar"
	"run4recht/internal/ranking"
	"run4recht/internal/service"
)

type RankingHandler struct {
	Ranking    *service.RankingService
	Tournament *service.TournamentService
	Hub        *service.Hub
	Logger     *zap.Logger
}

func (h *RankingHandler) Register(r *gin.Engine) {
	group := r.Group("/api/ranking")
	group.GET("", h.tournament)
	group.POST("/zeitraum", h.byRange)
	group.GET("/aktueller-monat", h.currentMonth)
	group.GET("/stream", h.stream)
}

// @Summary Department ranking of a tournament window
// @Tags ranking
// @Param fenster query string false "W1..Wn or Gesamt (default)"
// @Success 200 {object} apiResponse
// @Router /api/ranking [get]
func (h *RankingHandler) tournament(c *gin.Context) {
	_, windows, err := h.Tournament.Windows(c.Request.Context())
	if errors.Is(err, ranking.ErrNotStarted) || errors.Is(err, service.ErrNotReady) {
		Ok(c, []activity.RankingEntry{}, map[string]any{"started": false})
		return
	}
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	w, ok := windows.Find(c.Query("fenster"))
	if !ok {
		Error(c, http.StatusBadRequest, "unknown window "+c.Query("fenster"), nil)
		return
	}
	h.respond(c, w.Elapsed, map[string]any{"fenster": w.Label})
}

// @Summary Department ranking of a range
// @Tags ranking
// @Accept json
// @Param body body calendar.Range true "range"
// @Success 200 {object} apiResponse
// @Router /api/ranking/zeitraum [post]
func (h *RankingHandler) byRange(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	h.respond(c, r, nil)
}

// @Summary Department ranking of the current month
// @Tags ranking
// @Success 200 {object} apiResponse
// @Router /api/ranking/aktueller-monat [get]
func (h *RankingHandler) currentMonth(c *gin.Context) {
	today := h.Tournament.Today()
	month := calendar.Month(today)
	month.End = today
	h.respond(c, month, nil)
}

func (h *RankingHandler) respond(c *gin.Context, r calendar.Range, meta map[string]any) {
	entries, err := h.Ranking.Departments(c.Request.Context(), r)
	if err != nil {
		Fail(c, h.Logger, err)
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["zeitraum"] = r
	meta["total"] = len(entries)
	Ok(c, entries, meta)
}

// @Summary Live ranking updates (websocket)
// @Tags ranking
// @Router /api/ranking/stream [get]
func (h *RankingHandler) stream(c *gin.Context) {
	if h.Hub == nil {
		Error(c, http.StatusServiceUnavailable, "stream unavailable", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := conn.CloseRead(c.Request.Context())
	updates, cancel := h.Hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				return
			}
			writeCtx, done := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			done()
			if err != nil {
				if h.Logger != nil {
					h.Logger.Debug("websocket write failed", zap.Error(err))
				}
				return
			}
		}
	}
}
