// Package domain contains the append-only activity log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry records a business event for audit purposes. Rows are never
// updated; the purge job deletes entries past the retention window.
type Entry struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID     *snowflake.ID     `gorm:"index" json:"actor_id,omitempty"`
	Action      string            `gorm:"type:text;not null;index" json:"action"`
	SubjectType string            `gorm:"type:text;not null" json:"subject_type"`
	SubjectID   *snowflake.ID     `gorm:"index" json:"subject_id,omitempty"`
	Description string            `gorm:"type:text" json:"description"`
	Properties  datatypes.JSONMap `gorm:"type:jsonb" json:"properties"`
	IPAddress   *string           `gorm:"type:text" json:"ip_address,omitempty"`
	UserAgent   *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "activity_logs" }
