package model

import (
	"time"
)

// Measurement is a scheduled on-site visit.
//
// Description holds the line items and note encoded by package lineitem.
// Height and Width predate multi-item measurements and mirror the first
// dimensioned item.
type Measurement struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"index;not null"`
	ClientID    uint      `json:"client_id" gorm:"index;not null"`
	AddressID   uint      `json:"address_id" gorm:"index;not null"`
	ProductID   *uint     `json:"product_id" gorm:"index"`
	ScheduledAt time.Time `json:"scheduled_at" gorm:"index;not null"`
	Status      string    `json:"status" gorm:"type:varchar(20);index;not null;default:pending"`
	Description *string   `json:"description" gorm:"type:varchar(191)"`
	Height      *float64  `json:"height"`
	Width       *float64  `json:"width"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Client  *Client  `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Address *Address `json:"address,omitempty" gorm:"foreignKey:AddressID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
}

// Column names used in partial updates
const (
	ColumnClientID    = "client_id"
	ColumnAddressID   = "address_id"
	ColumnProductID   = "product_id"
	ColumnScheduledAt = "scheduled_at"
	ColumnStatus      = "status"
	ColumnDescription = "description"
	ColumnHeight      = "height"
	ColumnWidth       = "width"
)
