package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
	metricusecase "github.com/UWorldJK/stocks-etl/internal/feature/metrics/usecase"
	"github.com/UWorldJK/stocks-etl/internal/platform/scheduler"
)

// SchedulerStatus reports the scheduler snapshot.
type SchedulerStatus interface {
	Status() scheduler.Status
}

// StatusHandler serves runtime diagnostics for the scheduled service.
type StatusHandler struct {
	sched   SchedulerStatus
	metrics *metricusecase.QueryUsecase
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(sched SchedulerStatus, metrics *metricusecase.QueryUsecase) *StatusHandler {
	return &StatusHandler{sched: sched, metrics: metrics}
}

// GetStatus returns the scheduler snapshot as JSON.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, h.sched.Status())
}

// metricRow is the JSON shape of one daily_metrics row. NaN is not valid
// JSON, so undefined metrics are rendered as null.
type metricRow struct {
	Date     string   `json:"date"`
	Ticker   string   `json:"ticker"`
	Return1D *float64 `json:"return_1d"`
	MA7      *float64 `json:"ma_7"`
	MA30     *float64 `json:"ma_30"`
	Vol7     *float64 `json:"vol_7"`
	Vol30    *float64 `json:"vol_30"`
	RSI      *float64 `json:"rsi"`
}

func toRow(m entity.DailyMetric) metricRow {
	return metricRow{
		Date:     m.Date.Format("2006-01-02"),
		Ticker:   m.Ticker,
		Return1D: jsonNumber(m.Return1D),
		MA7:      jsonNumber(m.MA7),
		MA30:     jsonNumber(m.MA30),
		Vol7:     jsonNumber(m.Vol7),
		Vol30:    jsonNumber(m.Vol30),
		RSI:      jsonNumber(m.RSI),
	}
}

func jsonNumber(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// GetRecentMetrics returns the most recent metric rows, newest date first,
// tickers ascending within a date. The optional limit query parameter
// defaults to 10.
func (h *StatusHandler) GetRecentMetrics(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	ms, err := h.metrics.RecentMetrics(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows := make([]metricRow, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, toRow(m))
	}
	c.JSON(http.StatusOK, gin.H{"metrics": rows})
}
