// internal/models/transfer.go
package models

import (
	"github.com/google/uuid"
)

// TransferStatus is the reference table backing request statuses.
// Rows are seeded (pending/accepted/denied) and looked up by name.
type TransferStatus struct {
	BaseModel
	Name        TransferStatusName `json:"name" gorm:"type:varchar(20);uniqueIndex;not null"`
	Description string             `json:"description" gorm:"type:text"`
	UpdatedBy   *uuid.UUID         `json:"updated_by" gorm:"type:uuid"`
}

func (TransferStatus) TableName() string { return "transfer_status" }

// TransferRequest is a pending claim by TransferToUserID to take ownership
// of a product from TransferFromUserID. Once resolved it is immutable.
type TransferRequest struct {
	BaseModel
	ProductID          uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	TransferFromUserID uuid.UUID  `json:"transfer_from_user_id" gorm:"type:uuid;not null;index"`
	TransferToUserID   uuid.UUID  `json:"transfer_to_user_id" gorm:"type:uuid;not null;index"`
	TransferStatusID   uuid.UUID  `json:"transfer_status_id" gorm:"type:uuid;not null"`
	Description        string     `json:"description" gorm:"type:text"`
	UpdatedBy          *uuid.UUID `json:"updated_by" gorm:"type:uuid"`

	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Status  *TransferStatus `json:"status,omitempty" gorm:"foreignKey:TransferStatusID"`
}

func (TransferRequest) TableName() string { return "transfer_requests" }
