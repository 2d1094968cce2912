package types

import (
	"time"

	"gorm.io/datatypes"
)

// ProcessingLog is one audit row per handled integration request: what came
// in, which CRM entities were touched, and how it ended.
type ProcessingLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	Message   string         `gorm:"size:500;not null" json:"message"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
}

func (ProcessingLog) TableName() string { return "logs" }
