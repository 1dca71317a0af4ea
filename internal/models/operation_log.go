package models

import (
	"time"

	"relaypanel/internal/uuid"

	"gorm.io/gorm"
)

// OperationLog records an admin mutation for auditing. Old/new values are
// JSON snapshots; CreatedAt is kept as unix seconds so range filters can
// compare against client-supplied timestamps directly.
type OperationLog struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string `gorm:"type:uuid;index" json:"user_id"`
	Username    string `gorm:"index" json:"username"`
	Module      string `gorm:"index" json:"module"`
	Action      string `gorm:"index" json:"action"`
	TargetID    string `gorm:"index" json:"target_id"`
	TargetName  string `json:"target_name"`
	OldValue    string `gorm:"type:text" json:"old_value"`
	NewValue    string `gorm:"type:text" json:"new_value"`
	Description string `json:"description"`
	IP          string `json:"ip"`
	CreatedAt   int64  `gorm:"index" json:"created_at"`
}

// BeforeCreate fills the id and timestamp for new records.
func (l *OperationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New()
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = time.Now().Unix()
	}
	return nil
}
