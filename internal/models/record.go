package models

import (
	"time"

	"gorm.io/datatypes"
)

// SavedRecord is a saved analysis on the user's dashboard. Data holds the
// full AnalysisResult envelope plus the chat sessions and counter captured
// at save time, so opening a record restores the whole working state.
type SavedRecord struct {
	Serial    int64          `gorm:"column:serial;primaryKey;autoIncrement" json:"serial"`
	UserID    string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb" json:"data"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (SavedRecord) TableName() string { return "saved_records" }

// SavedRecordData is the JSON document held in SavedRecord.Data.
type SavedRecordData struct {
	Analysis     Analysis      `json:"analysis"`
	Metadata     Metadata      `json:"metadata"`
	OriginalText string        `json:"originalText,omitempty"`
	ChatSessions []ChatSession `json:"chatSessions,omitempty"`
	ChatCounter  int64         `json:"chatCounter,omitempty"`
}
