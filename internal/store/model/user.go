package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User carries the requester's pricing multipliers.
type User struct {
	ID               uuid.UUID                      `gorm:"primaryKey;"`
	Name             string                         `gorm:"type:VARCHAR(255)"`
	PriceMultiplier  float64                        `gorm:"not null;default:1.0"`
	TradeMultipliers *JSONField[map[string]float64] `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u User) String() string {
	val, _ := json.Marshal(u)
	return string(val)
}
