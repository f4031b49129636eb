package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doccast/internal/api/dto"
	"doccast/internal/podcast"
	"doccast/internal/services"
)

// CreatePodcast handles POST /api/v1/podcasts
// Accepts a generation request and queues it for asynchronous processing
func (h *PodcastHandler) CreatePodcast(c *gin.Context) {
	var req dto.CreatePodcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if req.TargetLength == "" {
		req.TargetLength = podcast.LengthMedium
	}

	job, err := h.scheduler.Start(c.Request.Context(), req.DocumentIDs, req.TargetLength)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.logger.Error("Failed to queue podcast job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue podcast job",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":        job.ID,
		"status":        job.Status,
		"stage":         job.Stage,
		"target_length": job.TargetLength,
		"created_at":    job.CreatedAt.Format(time.RFC3339),
	})
}

// GetPodcast handles GET /api/v1/podcasts/:job_id
// Returns the job's current status and, once complete, its artifacts.
// Failed jobs are cleaned up shortly after failing, so pollers may see the
// failed record or a 404 depending on timing.
func (h *PodcastHandler) GetPodcast(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, podcast.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Podcast not found",
			})
			return
		}
		h.logger.Error("Failed to get podcast", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get podcast",
		})
		return
	}

	c.JSON(http.StatusOK, toDTO(job))
}

// ListPodcasts handles GET /api/v1/podcasts
// Lists podcast jobs with optional status filtering and cursor pagination
func (h *PodcastHandler) ListPodcasts(c *gin.Context) {
	var req dto.ListPodcastsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	jobs, err := h.store.List(c.Request.Context(), podcast.Filter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list podcasts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list podcasts",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	resp := dto.ListPodcastsResponse{
		Podcasts: make([]dto.PodcastDTO, len(jobs)),
	}
	for i := range jobs {
		resp.Podcasts[i] = toDTO(&jobs[i])
	}

	if hasMore {
		last := jobs[len(jobs)-1]
		resp.NextCursor = EncodeCursor(&podcast.Cursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func toDTO(job *podcast.Job) dto.PodcastDTO {
	d := dto.PodcastDTO{
		JobID:           job.ID,
		DocumentIDs:     job.DocumentIDs,
		TargetLength:    job.TargetLength,
		Status:          job.Status,
		Stage:           job.Stage,
		Progress:        job.Progress,
		ScriptPath:      job.ScriptPath,
		AudioPath:       job.AudioPath,
		DurationSeconds: job.DurationSeconds,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
		ErrorMessage:    job.ErrorMessage,
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.Format(time.RFC3339)
		d.CompletedAt = &s
	}
	if job.FailedAt != nil {
		s := job.FailedAt.Format(time.RFC3339)
		d.FailedAt = &s
	}
	return d
}
