package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking statuses. "completed" is only reachable through invoice
// finalization, never through the generic status updater.
const (
	BookingPending    = "pending"
	BookingArrived    = "arrived"
	BookingInProgress = "in_progress"
	BookingVerified   = "verified"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
)

// Booking represents a customer's service booking. The (date, time_slot)
// pair is an exclusivity resource: the partial unique index guarantees at
// most one non-cancelled booking per slot even under concurrent inserts.
type Booking struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CustomerID      uint       `gorm:"not null;index" json:"customer_id"`
	Customer        User       `gorm:"foreignKey:CustomerID" json:"customer"`
	VehicleNumber   string     `gorm:"not null" json:"vehicle_number"`
	Brand           string     `json:"brand"`
	Model           string     `json:"model"`
	VehicleType     string     `json:"vehicle_type"`
	FuelType        string     `json:"fuel_type"`
	Transmission    string     `json:"transmission"`
	Year            int        `json:"year"`
	ServiceTypes    StringList `gorm:"type:text" json:"service_types"`
	Date            string     `gorm:"not null;index:idx_bookings_date_slot,unique,where:status <> 'cancelled'" json:"date"` // YYYY-MM-DD, shop-local
	TimeSlot        string     `gorm:"not null;index:idx_bookings_date_slot,unique,where:status <> 'cancelled'" json:"time_slot"`
	SpecialRequests string     `json:"special_requests"`
	KilometersRun   int        `json:"kilometers_run"`
	Status          string     `gorm:"not null;default:'pending';index" json:"status"`
	ArrivedAt       *time.Time `json:"arrived_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsValidBookingStatus checks a status string against the known set.
func IsValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingArrived, BookingInProgress, BookingVerified,
		BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// bookingTransitions is the single place booking transitions are defined.
// "completed" is deliberately absent from every target list: only the
// invoice finalization path may perform that transition.
var bookingTransitions = map[string][]string{
	BookingPending:    {BookingArrived, BookingInProgress, BookingCancelled},
	BookingArrived:    {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingVerified, BookingCancelled},
	BookingVerified:   {BookingCancelled},
	BookingCompleted:  {},
	BookingCancelled:  {},
}

// CanTransitionTo reports whether the generic status updater may move the
// booking from its current status to target.
func (b *Booking) CanTransitionTo(target string) bool {
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the booking has reached a final status.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}
