// internal/models/resource.go
package models

import (
	"github.com/google/uuid"
)

// Resource is a stored file. The actual bytes live in the blob store (S3
// or local disk); this row carries the path and metadata.
type Resource struct {
	BaseModel
	Name      string     `json:"name" gorm:"type:text"`
	FilePath  string     `json:"file_path" gorm:"type:text"`
	FileType  string     `json:"file_type" gorm:"size:255"`
	FileSize  int64      `json:"file_size"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

func (Resource) TableName() string { return "resources" }

// ItemResource attaches a resource to any owning entity via
// (item_type, item_id). A join row can be soft-deleted independently of
// both the resource and the item.
type ItemResource struct {
	BaseModel
	ItemType   ItemType   `json:"item_type" gorm:"type:varchar(20);not null;index:idx_item"`
	ItemID     uuid.UUID  `json:"item_id" gorm:"type:uuid;not null;index:idx_item"`
	ResourceID uuid.UUID  `json:"resource_id" gorm:"type:uuid;not null"`
	UpdatedBy  *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

func (ItemResource) TableName() string { return "item_resources" }
