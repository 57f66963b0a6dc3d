package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Template is the baseline scope, price range and duration for one
// (trade, jobType) pair.
type Template struct {
	ID               uuid.UUID             `gorm:"primaryKey;"`
	Trade            string                `gorm:"not null;uniqueIndex:templates_trade_job_type;type:VARCHAR(100)"`
	JobType          string                `gorm:"not null;uniqueIndex:templates_trade_job_type;type:VARCHAR(100)"`
	ScopeItems       *JSONField[[]string]  `gorm:"type:jsonb"`
	PriceLow         int                   `gorm:"not null"`
	PriceHigh        int                   `gorm:"not null"`
	DurationDaysLow  int                   `gorm:"not null;default:1"`
	DurationDaysHigh int                   `gorm:"not null;default:1"`
	Warranty         string                `gorm:"type:TEXT"`
	Exclusions       string                `gorm:"type:TEXT"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (t Template) String() string {
	val, _ := json.Marshal(t)
	return string(val)
}
