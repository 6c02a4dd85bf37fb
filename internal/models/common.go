// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. The primary key is assigned in
// BeforeCreate rather than by a column default so the schema works on
// any dialect AutoMigrate targets.
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type RoleKey string

const (
	RoleAdmin    RoleKey = "admin"
	RoleOwner    RoleKey = "owner"
	RoleCustomer RoleKey = "customer"
)

// TransferStatusName is a request-level status, stored in the
// transfer_status reference table and looked up by name.
type TransferStatusName string

const (
	TransferStatusPending  TransferStatusName = "pending"
	TransferStatusAccepted TransferStatusName = "accepted"
	TransferStatusDenied   TransferStatusName = "denied"
)

// ProductStatus is the per-viewer projection of a product's transfer
// process, distinct from the request's own status.
type ProductStatus string

const (
	ProductStatusNormal   ProductStatus = "normal"
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusAccepted ProductStatus = "accepted"
	ProductStatusDenied   ProductStatus = "denied"
)

type ItemType string

const (
	ItemTypeFarm       ItemType = "farm"
	ItemTypeTree       ItemType = "tree"
	ItemTypeProduct    ItemType = "product"
	ItemTypeFertilizer ItemType = "fertilizer"
)

// RolePolicy is the static role→permission table. It is constructed once
// and injected into the router/middleware rather than read from globals.
type RolePolicy struct {
	All       []RoleKey
	AdminOnly []RoleKey
	Owners    []RoleKey
	Customers []RoleKey
}

func DefaultRolePolicy() *RolePolicy {
	return &RolePolicy{
		All:       []RoleKey{RoleAdmin, RoleOwner, RoleCustomer},
		AdminOnly: []RoleKey{RoleAdmin},
		Owners:    []RoleKey{RoleAdmin, RoleOwner},
		Customers: []RoleKey{RoleAdmin, RoleCustomer},
	}
}

// RegisterableRoles are the role keys self-service registration may claim.
func (p *RolePolicy) RegisterableRoles() []RoleKey {
	return []RoleKey{RoleOwner, RoleCustomer}
}

func (p *RolePolicy) Allows(allowed []RoleKey, role RoleKey) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
