package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	api "github.com/bidready/draft-service/api/v1alpha1"
)

// DraftJob is one asynchronous draft-generation request. A record is created
// pending, claimed into processing by exactly one worker at a time, and ends
// at ready or failed. Terminal records are kept for audit.
type DraftJob struct {
	ID             uuid.UUID `gorm:"primaryKey;"`
	JobID uuid.UUID `gorm:"not null;index:draft_jobs_job_id_idx;uniqueIndex:draft_jobs_active_key_idx,priority:1"`
	// one active record per (job, key): the partial index leaves failed
	// records out so a re-enqueue after terminal failure can reuse the key
	IdempotencyKey *string `gorm:"type:VARCHAR(255);uniqueIndex:draft_jobs_active_key_idx,priority:2,where:status <> 'failed'"`
	Status         string    `gorm:"not null;type:VARCHAR(20);default:'pending';index:draft_jobs_status_idx"`
	Attempts       int       `gorm:"not null;default:0"`
	NextAttemptAt  *time.Time
	LockedBy       *string `gorm:"type:VARCHAR(255)"`
	LockedAt       *time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
	Error          *string                       `gorm:"type:TEXT"`
	Payload        *JSONField[api.Draft]         `gorm:"type:jsonb"`
	Context        *JSONField[api.DraftContext]  `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type DraftJobList []DraftJob

func NewDraftJob(jobID uuid.UUID, idempotencyKey *string, draftCtx *api.DraftContext) *DraftJob {
	now := time.Now().UTC()
	j := &DraftJob{
		ID:             uuid.New(),
		JobID:          jobID,
		IdempotencyKey: idempotencyKey,
		Status:         string(api.DraftJobStatusPending),
		NextAttemptAt:  &now,
	}
	if draftCtx != nil {
		j.Context = MakeJSONField(*draftCtx)
	}
	return j
}

func (d DraftJob) String() string {
	val, _ := json.Marshal(d)
	return string(val)
}
