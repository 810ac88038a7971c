package model

import (
	"time"
)

// Tenant is a company account. Every other record belongs to exactly one tenant.
type Tenant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(150);not null"`
	Document  string    `json:"document" gorm:"type:varchar(20);uniqueIndex"`
	Email     string    `json:"email" gorm:"type:varchar(150)"`
	Phone     string    `json:"phone" gorm:"type:varchar(20)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client is a customer of a tenant
type Client struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(150);not null"`
	Document  string    `json:"document,omitempty" gorm:"type:varchar(20)"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(150)"`
	Addresses []Address `json:"addresses,omitempty" gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address is a site of a client. It reaches its tenant through the client.
type Address struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ClientID     uint      `json:"client_id" gorm:"index;not null"`
	Street       string    `json:"street" gorm:"type:varchar(191)"`
	Neighborhood string    `json:"neighborhood" gorm:"type:varchar(120)"`
	City         string    `json:"city" gorm:"type:varchar(120)"`
	PostalCode   string    `json:"postal_code" gorm:"type:varchar(12)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product is a catalog entry of a tenant
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(150);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
