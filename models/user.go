package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Customers book services; the four staff roles drive the
// booking workflow from arrival to invoicing.
const (
	RoleCustomer       = "customer"
	RoleReceptionist   = "receptionist"
	RoleServiceAdvisor = "service_advisor"
	RoleMechanic       = "mechanic"
	RoleManager        = "manager"
)

// User represents a customer or staff member
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string         `json:"phone"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         string         `gorm:"not null;default:'customer'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user holds any workshop staff role.
func (u *User) IsStaff() bool {
	switch u.Role {
	case RoleReceptionist, RoleServiceAdvisor, RoleMechanic, RoleManager:
		return true
	}
	return false
}

// IsValidRole checks a role string against the known set.
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleReceptionist, RoleServiceAdvisor, RoleMechanic, RoleManager:
		return true
	}
	return false
}
