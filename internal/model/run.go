package model

import "time"

// RunStatus tracks the lifecycle of one document extraction run in the store.
type RunStatus string

// Run statuses.
const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the persisted record of one document extraction.
type Run struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	Status     RunStatus  `json:"status"`
	Result     *RunResult `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RunResult summarizes a completed run for persistence and reporting.
type RunResult struct {
	Accepted        bool    `json:"accepted"`
	ExperienceCount int     `json:"experience_count"`
	EducationCount  int     `json:"education_count"`
	DiversityScore  float64 `json:"diversity_score"`
	RescueTriggered bool    `json:"rescue_triggered"`
	Error           string  `json:"error,omitempty"`
}
