// internal/models/product.go
package models

import (
	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	Name          string     `json:"name" gorm:"size:255;not null"`
	Code          string     `json:"code" gorm:"size:255;uniqueIndex"`
	FarmID        *uuid.UUID `json:"farm_id" gorm:"type:uuid"`
	CategoryID    *uuid.UUID `json:"category_id" gorm:"type:uuid"`
	PriceInRetail *float64   `json:"price_in_retail" gorm:"type:decimal(10,2)"`
	Description   string     `json:"description" gorm:"type:text"`
	// UpdatedBy is the current owner of the product. It changes only when
	// a transfer request is accepted.
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid;index"`

	Farm *Farm `json:"farm,omitempty" gorm:"foreignKey:FarmID"`
}

// ProductTransferStatus is the per-viewer projection row: the same
// underlying transfer is seen with a different status by the owner and by
// each requester. Keyed by (product_id, updated_by).
type ProductTransferStatus struct {
	BaseModel
	ProductID      uuid.UUID     `json:"product_id" gorm:"type:uuid;not null;index:idx_product_viewer"`
	TransferStatus ProductStatus `json:"transfer_status" gorm:"type:varchar(20);not null"`
	UpdatedBy      uuid.UUID     `json:"updated_by" gorm:"type:uuid;not null;index:idx_product_viewer"`
}

func (ProductTransferStatus) TableName() string { return "product_transfer_status" }

// Rfid is the physical tag written for an item at creation time. For
// products the tag code mirrors the product code, and the row is
// soft-deleted together with the product.
type Rfid struct {
	BaseModel
	Code      string     `json:"code" gorm:"size:255;uniqueIndex"`
	ItemType  ItemType   `json:"item_type" gorm:"type:varchar(20);not null;index:idx_rfid_item"`
	ItemID    uuid.UUID  `json:"item_id" gorm:"type:uuid;not null;index:idx_rfid_item"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

func (Rfid) TableName() string { return "rfids" }

// ProductHistory records one completed transfer. Rows are append-only.
type ProductHistory struct {
	BaseModel
	ProductID          uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	TransferFromUserID uuid.UUID  `json:"transfer_from_user_id" gorm:"type:uuid;not null"`
	TransferToUserID   uuid.UUID  `json:"transfer_to_user_id" gorm:"type:uuid;not null"`
	UpdatedBy          *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

func (ProductHistory) TableName() string { return "product_history" }
