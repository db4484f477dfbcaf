package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/winnow/cache"
	"github.com/use-agent/winnow/models"
	"github.com/use-agent/winnow/pipeline"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports cache utilisation and degrades status when the cache is full.
func Health(p *pipeline.Pipeline, cc *cache.Cache, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stats models.CacheStats
		if cc != nil {
			stats = cc.Stats()
		}

		status := "healthy"
		if stats.MaxEntries > 0 && stats.Entries >= stats.MaxEntries {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Cache:   stats,
			Config:  p.EffectiveDefaults(),
			Version: Version,
		})
	}
}
