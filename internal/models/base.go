package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateFormat is the canonical format for calendar-day columns (visit
// dates, last visit date). Days are computed in the merchant's local
// timezone, not UTC.
const DateFormat = "2006-01-02"

// Base contains common columns for all tables
type Base struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return nil
}
