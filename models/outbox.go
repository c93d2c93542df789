package models

import "time"

// Outbox entry statuses.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// Notification types.
const (
	NotificationInvoiceReady = "invoice_ready"
)

// NotificationOutbox decouples best-effort delivery from workflow state
// transitions: the entry is written in the same transaction as the
// transition and dispatched after commit. A delivery failure is recorded
// on the row and never rolls back the transition.
type NotificationOutbox struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	BookingID uint       `gorm:"not null;index" json:"booking_id"`
	Type      string     `gorm:"not null" json:"type"`
	Recipient string     `gorm:"not null" json:"recipient"`
	Subject   string     `json:"subject"`
	Body      string     `gorm:"type:text" json:"body"`
	Status    string     `gorm:"not null;default:'pending';index" json:"status"`
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the NotificationOutbox model
func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}

// AllModels returns every model for AutoMigrate, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Mechanic{},
		&SparePart{},
		&Booking{},
		&Jobcard{},
		&MechanicAssignment{},
		&SparePartAssignment{},
		&Invoice{},
		&BreakdownRequest{},
		&NotificationOutbox{},
	}
}
