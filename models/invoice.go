package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses.
const (
	InvoiceGenerated = "generated"
	InvoiceFinalized = "finalized"
)

// Invoice is the immutable billing snapshot for one booking. Snapshot holds
// the full line-item data contract as JSON; RenderedDocument holds the
// document exactly as produced at generation time, so downloads are
// byte-identical re-reads, never recomputations.
type Invoice struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	BookingID        uint       `gorm:"not null;uniqueIndex" json:"booking_id"`
	Booking          Booking    `gorm:"foreignKey:BookingID" json:"-"`
	InvoiceNumber    string     `gorm:"uniqueIndex;not null" json:"invoice_number"`
	LaborTotal       float64    `gorm:"type:decimal(10,2);not null" json:"labor_total"`
	PartsTotal       float64    `gorm:"type:decimal(10,2);not null" json:"parts_total"`
	Tax              float64    `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Total            float64    `gorm:"type:decimal(10,2);not null" json:"total"`
	Status           string     `gorm:"not null;default:'generated'" json:"status"`
	Snapshot         string     `gorm:"type:text;not null" json:"-"`
	RenderedDocument string     `gorm:"type:text;not null" json:"-"`
	GeneratedAt      time.Time  `json:"generated_at"`
	FinalizedAt      *time.Time `json:"finalized_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}
