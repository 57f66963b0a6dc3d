package events

// DraftEvent is the payload shared by all draft lifecycle events.
type DraftEvent struct {
	DraftJobID string `json:"draft_job_id"`
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts,omitempty"`
	Error      string `json:"error,omitempty"`
}
