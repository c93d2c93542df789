package models

import (
	"time"

	"gorm.io/gorm"
)

// SparePart represents an item in the spare-parts inventory
type SparePart struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	PartNumber    string         `gorm:"uniqueIndex;not null" json:"part_number"`
	Price         float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int            `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the SparePart model
func (SparePart) TableName() string {
	return "spare_parts"
}
