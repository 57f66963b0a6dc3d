package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is the parent contractor job a draft is proposed for. Only the slice
// needed for context resolution and the coarse status label lives here; the
// rest of the record belongs to the forms layer.
type Job struct {
	ID        uuid.UUID `gorm:"primaryKey;"`
	UserID    uuid.UUID `gorm:"not null;index:jobs_user_id_idx"`
	Trade     string    `gorm:"not null;type:VARCHAR(100)"`
	JobType   string    `gorm:"not null;type:VARCHAR(100)"`
	Size      string    `gorm:"not null;type:VARCHAR(20);default:'medium'"`
	Notes     string    `gorm:"type:TEXT"`
	Status    string    `gorm:"type:VARCHAR(50)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
