package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/econpulse/internal/middleware"
)

// requestTimeout bounds every read, including a cold stats query that
// misses the cache.
const requestTimeout = 10 * time.Second

// NewRouter builds the read API over the stored indicator series.
//
// Routes:
//
//	GET /api/v1/indicators                    every known indicator with its latest value
//	GET /api/v1/indicators/:code              one indicator; 404 for an unknown code
//	GET /api/v1/indicators/:code/history      newest first; ?days=30&limit=100 (limit max 1000)
//	GET /api/v1/stats/latest                  latest value per indicator, cached
//	GET /swagger/*any                         generated OpenAPI UI
//
// The API only reads what the ETL loaded; nothing here writes. Each request
// gets a request id, an access log line, panic recovery, error rendering,
// a per-client rate limit and a deadline propagated to the database through
// the request context. /healthz and /readyz need the pool and are added by
// the app package on the returned engine.
func NewRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(),
		withDeadline(requestTimeout),
	)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	registerV1(router.Group("/api/v1"), handler)

	return router
}

func registerV1(v1 *gin.RouterGroup, h *Handler) {
	indicators := v1.Group("/indicators")
	indicators.GET("", h.ListIndicators)
	indicators.GET("/:code", h.GetIndicator)
	indicators.GET("/:code/history", h.GetHistory)

	v1.GET("/stats/latest", h.GetLatestStats)
}

// withDeadline attaches a timeout to the request context so repository
// queries are cancelled when a client would have given up anyway.
func withDeadline(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
