package dto

type CreatePodcastRequest struct {
	DocumentIDs  []string `json:"document_ids" binding:"required,min=1"`
	TargetLength string   `json:"target_length"`
}

type ListPodcastsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListPodcastsResponse struct {
	Podcasts   []PodcastDTO `json:"podcasts"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type PodcastDTO struct {
	JobID           string   `json:"job_id"`
	DocumentIDs     []string `json:"document_ids"`
	TargetLength    string   `json:"target_length"`
	Status          string   `json:"status"`
	Stage           string   `json:"stage"`
	Progress        int      `json:"progress"`
	ScriptPath      *string  `json:"script_path,omitempty"`
	AudioPath       *string  `json:"audio_path,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	CreatedAt       string   `json:"created_at"`
	CompletedAt     *string  `json:"completed_at,omitempty"`
	FailedAt        *string  `json:"failed_at,omitempty"`
	ErrorMessage    *string  `json:"error_message,omitempty"`
}

type QuestionRequest struct {
	Question  string  `json:"question" binding:"required"`
	Timestamp float64 `json:"timestamp"`
	WithAudio bool    `json:"with_audio"`
}

type AnswerResponse struct {
	AnswerText  string       `json:"answer_text"`
	Sources     []string     `json:"sources"`
	ContextUsed ContextStats `json:"context_used"`
	Timestamp   float64      `json:"timestamp"`
	AudioPath   string       `json:"audio_path,omitempty"`
}

type ContextStats struct {
	DocumentChunks    int `json:"document_chunks"`
	DialogueExchanges int `json:"dialogue_exchanges"`
}

type TransitionRequest struct {
	Type     string `json:"type" binding:"required,oneof=acknowledgment return"`
	Question string `json:"question"`
}

type TransitionResponse struct {
	Text      string `json:"text"`
	AudioPath string `json:"audio_path"`
}
