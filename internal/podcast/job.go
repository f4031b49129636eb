package podcast

import (
	"time"
)

// Job status constants
const (
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Pipeline stage constants
const (
	StageInitializing      = "initializing"
	StageGeneratingScript  = "generating_script"
	StageSynthesizingAudio = "synthesizing_audio"
	StageComplete          = "complete"
	StageFailed            = "failed"
)

// Target length categories
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// ValidLength reports whether s is a recognized target-length category.
func ValidLength(s string) bool {
	switch s {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// Job is one podcast-generation request and its tracked lifecycle.
// Once the job leaves StatusProcessing exactly one of CompletedAt/FailedAt
// is set, and Progress is 100 iff Status is StatusComplete.
type Job struct {
	ID              string     `db:"job_id"`
	DocumentIDs     []string   `db:"-"`
	TargetLength    string     `db:"target_length"`
	Status          string     `db:"status"`
	Stage           string     `db:"stage"`
	Progress        int        `db:"progress"`
	ScriptPath      *string    `db:"script_path"`
	AudioPath       *string    `db:"audio_path"`
	DurationSeconds *float64   `db:"duration_seconds"`
	CreatedAt       time.Time  `db:"-"`
	CompletedAt     *time.Time `db:"-"`
	FailedAt        *time.Time `db:"-"`
	ErrorMessage    *string    `db:"error_message"`
}

// NewJob builds a freshly submitted job record.
func NewJob(id string, documentIDs []string, targetLength string) *Job {
	return &Job{
		ID:           id,
		DocumentIDs:  documentIDs,
		TargetLength: targetLength,
		Status:       StatusProcessing,
		Stage:        StageInitializing,
		Progress:     0,
		CreatedAt:    time.Now().UTC(),
	}
}

// PrimaryDocumentID returns the first source document, the one scripts are
// generated from.
func (j *Job) PrimaryDocumentID() string {
	if len(j.DocumentIDs) == 0 {
		return ""
	}
	return j.DocumentIDs[0]
}

// Update describes a partial mutation of a job record. Nil fields are left
// untouched.
type Update struct {
	Status          *string
	Stage           *string
	Progress        *int
	ScriptPath      *string
	AudioPath       *string
	DurationSeconds *float64
	CompletedAt     *time.Time
	FailedAt        *time.Time
	ErrorMessage    *string
}

// Message is the queue payload that schedules a job's background run.
type Message struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}

// Pointer helpers used by Update literals.
func String(s string) *string     { return &s }
func Int(i int) *int              { return &i }
func Float(f float64) *float64    { return &f }
func Time(t time.Time) *time.Time { return &t }
