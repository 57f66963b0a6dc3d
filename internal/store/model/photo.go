package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Photo is a supporting photo attached to a job. Findings hold prior
// image-analysis output when available; drafts never wait on them.
type Photo struct {
	ID        uuid.UUID            `gorm:"primaryKey;"`
	JobID     uuid.UUID            `gorm:"not null;index:photos_job_id_idx"`
	URL       string               `gorm:"not null;type:TEXT"`
	Kind      string               `gorm:"type:VARCHAR(100)"`
	Findings  *JSONField[[]string] `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PhotoList []Photo

func (p Photo) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}
