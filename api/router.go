package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/winnow/api/handler"
	"github.com/use-agent/winnow/api/middleware"
	"github.com/use-agent/winnow/cache"
	"github.com/use-agent/winnow/config"
	"github.com/use-agent/winnow/pipeline"
)

// batchRetention is how long finished batch jobs stay queryable.
const batchRetention = time.Hour

// Router is the HTTP API. It owns the background state of its handlers,
// which Close releases.
type Router struct {
	*gin.Engine

	batches *handler.BatchStore
	limiter *middleware.RateLimiter
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, p *pipeline.Pipeline, cc *cache.Cache, startTime time.Time) *Router {
	gin.SetMode(cfg.Server.Mode)

	r := &Router{
		Engine:  gin.New(),
		batches: handler.NewBatchStore(batchRetention),
		limiter: middleware.NewRateLimiter(cfg.RateLimit),
	}
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(p, cc, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(r.limiter.Middleware())

	protected.POST("/compare", handler.Compare(p, cfg.Compare))
	protected.POST("/fingerprint", handler.Fingerprint(p, cfg.Compare))

	protected.POST("/batch/compare", handler.PostBatch(p, r.batches, cfg.Compare))
	protected.GET("/batch/:id", handler.GetBatch(r.batches))

	return r
}

// Close stops the router's background goroutines.
func (r *Router) Close() {
	r.batches.Close()
	r.limiter.Close()
}
