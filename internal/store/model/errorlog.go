package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ErrorLogEntry is one durable diagnostic record. Entries are written before
// the draft job's own failure write so diagnostics survive a failed write.
type ErrorLogEntry struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	Category   string     `gorm:"not null;type:VARCHAR(100);index:error_log_category_idx"`
	Message    string     `gorm:"not null;type:TEXT"`
	JobID      *uuid.UUID `gorm:"type:TEXT"`
	DraftJobID *uuid.UUID `gorm:"type:TEXT"`
	PhotoID    *uuid.UUID `gorm:"type:TEXT"`
	Attempt    int        `gorm:"not null;default:0"`
	Details    *JSONField[map[string]any] `gorm:"type:jsonb"`
	CreatedAt  time.Time  `gorm:"index:error_log_created_at_idx"`
}

type ErrorLogEntryList []ErrorLogEntry

func (e ErrorLogEntry) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}
