// Package router builds the gin engine for the status endpoint of the
// scheduled service.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/UWorldJK/stocks-etl/internal/platform/http/handler"
)

// NewRouter wires the diagnostic routes. The status endpoint is read-only;
// everything mutating goes through the pipeline.
func NewRouter(status *handler.StatusHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/status", status.GetStatus)
	r.GET("/metrics/recent", status.GetRecentMetrics)

	return r
}
