package models

import (
	"time"

	"gorm.io/gorm"
)

// Breakdown request statuses. Only "pending" is set in-core; the rest are
// updated by staff as the roadside job progresses.
const (
	BreakdownPending    = "pending"
	BreakdownDispatched = "dispatched"
	BreakdownResolved   = "resolved"
	BreakdownCancelled  = "cancelled"
)

// BreakdownRequest is an emergency roadside assistance request with a
// distance/cost estimate computed at creation time.
type BreakdownRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CustomerID    uint      `gorm:"not null;index" json:"customer_id"`
	Customer      User      `gorm:"foreignKey:CustomerID" json:"customer"`
	VehicleNumber string    `gorm:"not null" json:"vehicle_number"`
	Brand         string    `json:"brand"`
	Model         string    `json:"model"`
	EmergencyType string    `gorm:"not null" json:"emergency_type"`
	Latitude      float64   `gorm:"not null" json:"latitude"`
	Longitude     float64   `gorm:"not null" json:"longitude"`
	DistanceKM    float64   `gorm:"type:decimal(10,2)" json:"distance_km"`
	EstimatedCost float64   `gorm:"type:decimal(10,2)" json:"estimated_cost"`
	Description   string    `gorm:"type:text" json:"description"`
	Status        string    `gorm:"not null;default:'pending'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the BreakdownRequest model
func (BreakdownRequest) TableName() string {
	return "breakdown_requests"
}
