package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doccast/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "doccast-api",
		})
	})

	podcastHandler := handler.NewPodcastHandler(deps)
	questionHandler := handler.NewQuestionHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		podcasts := v1.Group("/podcasts")
		{
			// POST /api/v1/podcasts - Queue a new podcast generation job
			podcasts.POST("", podcastHandler.CreatePodcast)

			// GET /api/v1/podcasts - List jobs with filtering and pagination
			podcasts.GET("", podcastHandler.ListPodcasts)

			// GET /api/v1/podcasts/:job_id - Get job status and artifacts
			podcasts.GET("/:job_id", podcastHandler.GetPodcast)

			// POST /api/v1/podcasts/:job_id/questions - Answer a listener question
			podcasts.POST("/:job_id/questions", questionHandler.AskQuestion)

			// POST /api/v1/podcasts/:job_id/transitions - Voice a Q&A transition
			podcasts.POST("/:job_id/transitions", questionHandler.CreateTransition)
		}
	}

	return r
}
