package models

import (
	"time"

	"gorm.io/gorm"
)

// Jobcard statuses.
const (
	JobcardOpen           = "open"
	JobcardInProgress     = "in_progress"
	JobcardReadyForReview = "ready_for_review"
	JobcardCompleted      = "completed"
	JobcardCanceled       = "canceled"
)

// ActiveJobcardStatuses are the statuses in which assigned mechanics count
// as busy. Used by every availability check.
var ActiveJobcardStatuses = []string{JobcardOpen, JobcardInProgress, JobcardReadyForReview}

// Jobcard is the internal work order for one booking (1:1). Mechanic and
// spare-part assignments live in their own join tables, which are the
// single source of truth; responses project them on read.
type Jobcard struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	BookingID      uint       `gorm:"not null;uniqueIndex" json:"booking_id"`
	Booking        Booking    `gorm:"foreignKey:BookingID" json:"-"`
	Status         string     `gorm:"not null;default:'open';index" json:"status"`
	ServiceDetails StringList `gorm:"type:text" json:"service_details"` // snapshot of booking.ServiceTypes at creation
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Jobcard model
func (Jobcard) TableName() string {
	return "jobcards"
}

var jobcardTransitions = map[string][]string{
	JobcardOpen:           {JobcardInProgress, JobcardCanceled},
	JobcardInProgress:     {JobcardReadyForReview, JobcardCanceled},
	JobcardReadyForReview: {JobcardCompleted, JobcardCanceled},
	JobcardCompleted:      {},
	JobcardCanceled:       {},
}

// CanTransitionTo reports whether the jobcard may move to target.
func (j *Jobcard) CanTransitionTo(target string) bool {
	for _, allowed := range jobcardTransitions[j.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsActive reports whether the jobcard still holds its mechanics busy.
func (j *Jobcard) IsActive() bool {
	for _, s := range ActiveJobcardStatuses {
		if j.Status == s {
			return true
		}
	}
	return false
}

// MechanicAssignment links a mechanic to a jobcard. A null CompletedAt
// means this mechanic's portion of the work is still open.
type MechanicAssignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	JobcardID   uint       `gorm:"not null;index:idx_jobcard_mechanic,unique" json:"jobcard_id"`
	Jobcard     Jobcard    `gorm:"foreignKey:JobcardID" json:"-"`
	MechanicID  uint       `gorm:"not null;index:idx_jobcard_mechanic,unique" json:"mechanic_id"`
	Mechanic    Mechanic   `gorm:"foreignKey:MechanicID" json:"mechanic"`
	AssignedAt  time.Time  `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the MechanicAssignment model
func (MechanicAssignment) TableName() string {
	return "mechanic_assignments"
}

// SparePartAssignment links a spare part to a jobcard with the price
// snapshotted at assignment time. Stock movements are delta-based per
// (jobcard, part) so reassigning the same quantities never double-decrements.
type SparePartAssignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JobcardID   uint      `gorm:"not null;index:idx_jobcard_part,unique" json:"jobcard_id"`
	Jobcard     Jobcard   `gorm:"foreignKey:JobcardID" json:"-"`
	SparePartID uint      `gorm:"not null;index:idx_jobcard_part,unique" json:"spare_part_id"`
	SparePart   SparePart `gorm:"foreignKey:SparePartID" json:"spare_part"`
	Quantity    int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice  float64   `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the SparePartAssignment model
func (SparePartAssignment) TableName() string {
	return "spare_part_assignments"
}
