package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/winnow/models"
)

// asPipelineError returns err as a *models.PipelineError, wrapping unknown
// errors as internal.
func asPipelineError(err error) *models.PipelineError {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return models.NewPipelineError(models.ErrCodeInternal, err.Error(), err)
}

// respondError writes err as a JSON error body with the matching status.
func respondError(c *gin.Context, err error) {
	pe := asPipelineError(err)
	c.JSON(mapErrorToStatus(pe), models.ErrorResponse{
		Success: false,
		Error:   pe.ToDetail(),
	})
}

// badRequest rejects a request that failed binding or validation.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: message,
		},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.PipelineError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeFetch:
		return http.StatusBadGateway // 502
	case models.ErrCodeExtraction:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
