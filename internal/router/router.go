package router

import (
	"net/http"

	"bridge-indexer/internal/handlers"
	"bridge-indexer/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health       *handlers.HealthHandler
	Cctx         *handlers.CctxHandler
	FailedEvents *handlers.FailedEventHandler
}

// corsMiddleware read-only API, any origin may GET
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger logs every request through logrus instead of gin's writer
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.WithFields(logrus.Fields{
			"path":        c.Request.URL.Path,
			"method":      c.Request.Method,
			"status":      c.Writer.Status(),
			"remote_addr": c.ClientIP(),
		}).Debug("HTTP request")
	}
}

func SetupRouter(h Handlers, adminAllowedIPs []string, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), corsMiddleware())

	// ============ Health & Metrics ============
	r.GET("/health", h.Health.HealthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ Cross-chain transactions ============
	api := r.Group("/api/v1")
	{
		api.GET("/cctx/:bridge", h.Cctx.ListCctxHandler)
		api.GET("/cctx/:bridge/:intentId", h.Cctx.GetCctxHandler)
	}

	// ============ Admin (localhost / whitelist) ============
	localhostOnly := middleware.NewLocalhostOnly(logger, adminAllowedIPs)
	admin := api.Group("/admin", localhostOnly.Restrict())
	{
		admin.GET("/runs/:runId/failed-events", h.FailedEvents.ListByRunHandler)
	}

	return r
}
