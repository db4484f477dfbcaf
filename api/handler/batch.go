package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/use-agent/winnow/config"
	"github.com/use-agent/winnow/models"
	"github.com/use-agent/winnow/pipeline"
	"github.com/use-agent/winnow/webhook"
)

// batchTimeout bounds a single asynchronous comparison.
const batchTimeout = 10 * time.Minute

// BatchStore holds in-flight and finished batch jobs. Jobs older than the
// retention period are expired by a background goroutine.
type BatchStore struct {
	mu        sync.RWMutex
	jobs      map[string]*models.BatchJob
	retention time.Duration
	done      chan struct{}
}

// NewBatchStore creates a BatchStore that keeps jobs for retention.
func NewBatchStore(retention time.Duration) *BatchStore {
	s := &BatchStore{
		jobs:      make(map[string]*models.BatchJob),
		retention: retention,
		done:      make(chan struct{}),
	}
	go s.expireLoop()
	return s
}

// Close stops the expiry goroutine.
func (s *BatchStore) Close() {
	close(s.done)
}

func (s *BatchStore) put(job *models.BatchJob) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

// get returns a copy of the job so callers never race with finish.
func (s *BatchStore) get(id string) (models.BatchJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.BatchJob{}, false
	}
	return *job, true
}

func (s *BatchStore) finish(id string, result *models.CompareResponse, detail *models.ErrorDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Result = result
	job.Error = detail
	if detail != nil {
		job.Status = "failed"
	} else {
		job.Status = "completed"
	}
}

func (s *BatchStore) expireLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.expire(time.Now())
		}
	}
}

func (s *BatchStore) expire(now time.Time) {
	cutoff := now.Add(-s.retention).Unix()
	s.mu.Lock()
	for id, job := range s.jobs {
		if job.CreatedAt < cutoff {
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()
}

// PostBatch returns a handler for POST /api/v1/batch/compare.
// It validates the request, registers a job and runs the comparison in the
// background.
func PostBatch(p *pipeline.Pipeline, store *BatchStore, limits config.CompareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request: "+err.Error())
			return
		}
		req.Defaults()

		if err := checkLimits(req.Documents, limits); err != nil {
			respondError(c, err)
			return
		}
		if _, err := p.Config(req.Winnow); err != nil {
			respondError(c, err)
			return
		}

		job := &models.BatchJob{
			ID:        "batch-" + ulid.Make().String(),
			Status:    "processing",
			Total:     len(req.Documents),
			CreatedAt: time.Now().Unix(),
		}
		store.put(job)

		go runBatch(p, store, job.ID, req)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: job.Status,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}

		c.JSON(http.StatusOK, models.BatchStatusResponse{
			ID:     job.ID,
			Status: job.Status,
			Total:  job.Total,
			Result: job.Result,
			Error:  job.Error,
		})
	}
}

// runBatch performs the comparison for job id and notifies the webhook,
// if one was given.
func runBatch(p *pipeline.Pipeline, store *BatchStore, id string, req models.BatchRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	resp, err := p.Compare(ctx, &req.CompareRequest)

	var detail *models.ErrorDetail
	if err != nil {
		detail = asPipelineError(err).ToDetail()
	}
	store.finish(id, resp, detail)

	slog.Info("batch job finished",
		"id", id,
		"documents", len(req.Documents),
		"failed", err != nil,
	)

	if req.WebhookURL == "" {
		return
	}
	event := &webhook.Event{
		Type:      webhook.EventCompareCompleted,
		JobID:     id,
		Timestamp: time.Now().Unix(),
		Data:      resp,
	}
	if detail != nil {
		event.Type = webhook.EventCompareFailed
		event.Data = detail
	}
	webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, event)
}
