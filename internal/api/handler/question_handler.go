package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"doccast/internal/api/dto"
	"doccast/internal/podcast"
	"doccast/internal/qa"
	"doccast/internal/services"
)

// AskQuestion handles POST /api/v1/podcasts/:job_id/questions
// Answers a listener question about the podcast at their playback position
func (h *QuestionHandler) AskQuestion(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	answer, err := h.answerer.Answer(c.Request.Context(), jobID, req.Question, req.Timestamp, req.WithAudio)
	if err != nil {
		h.respondError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnswerResponse{
		AnswerText: answer.Text,
		Sources:    answer.Sources,
		ContextUsed: dto.ContextStats{
			DocumentChunks:    answer.ChunksUsed,
			DialogueExchanges: answer.DialogueUsed,
		},
		Timestamp: answer.Timestamp,
		AudioPath: answer.AudioPath,
	})
}

// CreateTransition handles POST /api/v1/podcasts/:job_id/transitions
// Voices the host phrase played before or after a Q&A break
func (h *QuestionHandler) CreateTransition(c *gin.Context) {
	jobID := c.Param("job_id")

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	var (
		transition *qa.Transition
		err        error
	)
	switch req.Type {
	case "acknowledgment":
		if req.Question == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "question is required for acknowledgment transitions",
			})
			return
		}
		transition, err = h.transitions.Acknowledge(c.Request.Context(), jobID, req.Question)
	case "return":
		transition, err = h.transitions.Return(c.Request.Context(), jobID)
	}
	if err != nil {
		h.respondError(c, jobID, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransitionResponse{
		Text:      transition.Text,
		AudioPath: transition.AudioPath,
	})
}

func (h *QuestionHandler) respondError(c *gin.Context, jobID string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, podcast.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Podcast not found",
		})
	case errors.Is(err, services.ErrRateLimited),
		errors.Is(err, services.ErrTransient),
		errors.Is(err, services.ErrExhausted),
		errors.Is(err, services.ErrQuality),
		errors.Is(err, services.ErrPermanent):
		h.logger.Error("Provider failure answering question",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Upstream provider failure",
		})
	default:
		h.logger.Error("Failed to answer question",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to answer question",
		})
	}
}
