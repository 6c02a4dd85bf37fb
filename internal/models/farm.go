// internal/models/farm.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Farm struct {
	BaseModel
	Name        string     `json:"name" gorm:"size:255;not null"`
	Code        string     `json:"code" gorm:"size:255"`
	Area        *float64   `json:"area" gorm:"type:decimal(10,2)"`
	Description string     `json:"description" gorm:"type:text"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	UpdatedBy   *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type Tree struct {
	BaseModel
	Name        string     `json:"name" gorm:"size:255;not null"`
	Code        string     `json:"code" gorm:"size:255"`
	Description string     `json:"description" gorm:"type:text"`
	UpdatedBy   *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type Fertilizer struct {
	BaseModel
	Name            string     `json:"name" gorm:"size:255;not null"`
	Code            string     `json:"code" gorm:"size:255"`
	Description     string     `json:"description" gorm:"type:text"`
	Manufacturer    string     `json:"manufacturer" gorm:"size:255"`
	ManufactureDate *time.Time `json:"manufacture_date"`
	Compositions    string     `json:"compositions" gorm:"type:text"`
	Type            string     `json:"type" gorm:"size:255"`
	UpdatedBy       *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type Category struct {
	BaseModel
	Name        string     `json:"name" gorm:"size:255;uniqueIndex"`
	Description string     `json:"description" gorm:"type:text"`
	UpdatedBy   *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

func (Category) TableName() string { return "categories" }

type FarmTree struct {
	BaseModel
	FarmID    uuid.UUID  `json:"farm_id" gorm:"type:uuid;not null;index"`
	TreeID    uuid.UUID  `json:"tree_id" gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

type FarmFertilizer struct {
	BaseModel
	FarmID       uuid.UUID  `json:"farm_id" gorm:"type:uuid;not null;index"`
	FertilizerID uuid.UUID  `json:"fertilizer_id" gorm:"type:uuid;not null"`
	UpdatedBy    *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}
