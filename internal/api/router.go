package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log      *logrus.Logger
	Searches SearchRunner
	Queries  QueryLister

	// Runs and DB are nil when the archive is disabled.
	Runs RunReader
	DB   Pinger

	CORSOrigins []string
	RateLimit   float64
	RateBurst   int
	Version     string
}

const maxBodySize = 1 << 20

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID())
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, deps.RateLimit, deps.RateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	health := NewHealthHandler(deps.DB, deps.Log, deps.Version, len(deps.Queries.Infos()))
	queries := NewQueryHandler(deps.Queries)
	searches := NewSearchHandler(deps.Searches, deps.Log)

	api.GET("/health", health.Liveness)
	api.GET("/queries", queries.List)
	api.POST("/searches", searches.Create)
	api.GET("/searches/stream", searches.Stream(deps.CORSOrigins))

	if deps.Runs == nil {
		api.GET("/runs", archiveDisabled)
		api.GET("/runs/:id", archiveDisabled)

		return
	}

	runs := NewRunHandler(deps.Runs, deps.Log)
	api.GET("/runs", runs.List)
	api.GET("/runs/:id", runs.Get)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	if deps.RateLimit <= 0 {
		deps.RateLimit = 5
	}
	if deps.RateBurst < 1 {
		deps.RateBurst = 10
	}

	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
