package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterHTTPRoutes 注册详细健康检查路由
// GET /health
func RegisterHTTPRoutes(r *gin.Engine, aggregator *Aggregator) {
	r.GET("/health", healthHandler(aggregator))
}

// healthHandler 详细健康检查
// @Summary 详细健康检查
// @Description 汇总采样器、设备熔断与 Redis 采样流状态；degraded 仍返回200
// @Tags 健康检查
// @Produce json
// @Success 200 {object} map[string]interface{} "healthy 或 degraded"
// @Failure 503 {object} map[string]interface{} "unhealthy"
// @Router /health [get]
func healthHandler(aggregator *Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := aggregator.CheckAll(c.Request.Context())
		overall := Overall(results)

		// Degraded 仍返回200
		code := http.StatusOK
		if overall == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    overall,
			"timestamp": time.Now(),
			"checks":    results,
		})
	}
}
