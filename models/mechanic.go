package models

import (
	"time"

	"gorm.io/gorm"
)

// Mechanic availability states. Busy/Available flips are driven by the
// jobcard engine; On Break and Off Duty are set by managers.
const (
	MechanicAvailable = "Available"
	MechanicBusy      = "Busy"
	MechanicOnBreak   = "On Break"
	MechanicOffDuty   = "Off Duty"
)

// Mechanic represents a workshop mechanic on the floor
type Mechanic struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Specialization string         `json:"specialization"`
	HourlyRate     float64        `gorm:"type:decimal(10,2);not null;default:0" json:"hourly_rate"`
	Availability   string         `gorm:"not null;default:'Available'" json:"availability"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	UserID         *uint          `gorm:"index" json:"user_id,omitempty"` // login account, if the mechanic has one
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Mechanic model
func (Mechanic) TableName() string {
	return "mechanics"
}

// IsValidAvailability checks an availability string against the known set.
func IsValidAvailability(s string) bool {
	switch s {
	case MechanicAvailable, MechanicBusy, MechanicOnBreak, MechanicOffDuty:
		return true
	}
	return false
}
