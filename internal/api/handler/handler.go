package handler

import (
	"context"
	"log/slog"

	"doccast/internal/podcast"
	"doccast/internal/qa"
)

// JobStarter accepts a podcast request and queues it for processing.
type JobStarter interface {
	Start(ctx context.Context, documentIDs []string, targetLength string) (*podcast.Job, error)
}

// QuestionAnswerer answers a listener question against a finished podcast.
type QuestionAnswerer interface {
	Answer(ctx context.Context, jobID, question string, timestamp float64, withAudio bool) (*qa.Answer, error)
}

// TransitionVoicer renders the host phrases played around a Q&A break.
type TransitionVoicer interface {
	Acknowledge(ctx context.Context, jobID, question string) (*qa.Transition, error)
	Return(ctx context.Context, jobID string) (*qa.Transition, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Store       podcast.Store
	Scheduler   JobStarter
	Answerer    QuestionAnswerer
	Transitions TransitionVoicer
}

// PodcastHandler handles podcast-related HTTP requests
type PodcastHandler struct {
	logger    *slog.Logger
	store     podcast.Store
	scheduler JobStarter
}

// NewPodcastHandler creates a new PodcastHandler instance
func NewPodcastHandler(deps *Dependencies) *PodcastHandler {
	return &PodcastHandler{
		logger:    deps.Logger,
		store:     deps.Store,
		scheduler: deps.Scheduler,
	}
}

// QuestionHandler handles listener Q&A HTTP requests
type QuestionHandler struct {
	logger      *slog.Logger
	answerer    QuestionAnswerer
	transitions TransitionVoicer
}

// NewQuestionHandler creates a new QuestionHandler instance
func NewQuestionHandler(deps *Dependencies) *QuestionHandler {
	return &QuestionHandler{
		logger:      deps.Logger,
		answerer:    deps.Answerer,
		transitions: deps.Transitions,
	}
}
