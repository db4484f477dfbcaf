package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/winnow/config"
	"github.com/use-agent/winnow/models"
	"github.com/use-agent/winnow/pipeline"
)

// Compare returns a handler for POST /api/v1/compare.
func Compare(p *pipeline.Pipeline, limits config.CompareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CompareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request: "+err.Error())
			return
		}
		req.Defaults()

		if err := checkLimits(req.Documents, limits); err != nil {
			respondError(c, err)
			return
		}

		resp, err := p.Compare(c.Request.Context(), &req)
		if err != nil {
			slog.Warn("compare failed", "documents", len(req.Documents), "error", err)
			respondError(c, err)
			return
		}

		slog.Info("compare completed",
			"documents", len(req.Documents),
			"total_ms", resp.Timing.TotalMs,
		)
		c.JSON(http.StatusOK, resp)
	}
}

// Fingerprint returns a handler for POST /api/v1/fingerprint.
func Fingerprint(p *pipeline.Pipeline, limits config.CompareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FingerprintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request: "+err.Error())
			return
		}
		req.Defaults()

		if err := checkLimits([]models.Document{req.Document}, limits); err != nil {
			respondError(c, err)
			return
		}

		resp, err := p.Fingerprint(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// checkLimits enforces the per-request document count and inline size caps.
func checkLimits(docs []models.Document, limits config.CompareConfig) error {
	if limits.MaxDocuments > 0 && len(docs) > limits.MaxDocuments {
		return models.NewPipelineError(models.ErrCodeInvalidInput,
			fmt.Sprintf("maximum %d documents per request", limits.MaxDocuments), nil)
	}
	if limits.MaxDocumentBytes <= 0 {
		return nil
	}
	for i, d := range docs {
		size := len(d.HTML)
		if d.Text != nil {
			size = max(size, len(*d.Text))
		}
		if size > limits.MaxDocumentBytes {
			return models.DocumentError(i, models.ErrCodeInvalidInput,
				fmt.Sprintf("document exceeds %d bytes", limits.MaxDocumentBytes), nil)
		}
	}
	return nil
}
