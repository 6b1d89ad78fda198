package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/usersvc/internal/health"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// NewRouter wires middleware, the health endpoint and the user routes
func NewRouter(handlers *UserHandlers, healthManager *health.Manager, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(cors.Default())
	router.Use(RequestLoggingMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		report := healthManager.RuntimeHealthCheck(c.Request.Context())

		status, label := http.StatusOK, "healthy"
		if !report.Healthy {
			status, label = http.StatusServiceUnavailable, "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":    label,
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  report.Services,
		})
	})

	handlers.RegisterRoutes(router)

	return router
}

// RequestLoggingMiddleware tags each request with an id and logs its outcome
func RequestLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		logger.Info("Request handled",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()))
	}
}
