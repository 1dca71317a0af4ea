package models

import (
	"time"

	"relaypanel/internal/uuid"

	"gorm.io/gorm"
)

// Base is embedded by every table model. IDs are string UUIDv7 values so
// primary key order tracks creation time.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate assigns an ID when the caller left it empty, so fixtures can
// still insert rows with fixed IDs.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
