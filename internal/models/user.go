// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role struct {
	BaseModel
	Key         RoleKey    `json:"key" gorm:"type:varchar(20);uniqueIndex;not null"`
	Description string     `json:"description" gorm:"type:text"`
	UpdatedBy   *uuid.UUID `json:"updated_by" gorm:"type:uuid"`
}

func (Role) TableName() string { return "roles" }

type User struct {
	BaseModel
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255;not null"`
	Name          string     `json:"name" gorm:"size:255"`
	Address       string     `json:"address" gorm:"size:255"`
	DOB           *time.Time `json:"dob"`
	RoleID        uuid.UUID  `json:"role_id" gorm:"type:uuid;not null"`
	AvatarID      *uuid.UUID `json:"avatar_id" gorm:"type:uuid"`
	FirebaseToken string     `json:"-" gorm:"type:text"`
	// CreatedBy points at the parent account for sub-accounts. A nil
	// CreatedBy means the user is a primary account.
	CreatedBy *uuid.UUID `json:"created_by" gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `json:"updated_by" gorm:"type:uuid"`

	Role *Role `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// IsSubAccount reports whether the user belongs to a parent account.
func (u *User) IsSubAccount() bool {
	return u.CreatedBy != nil
}

// AccountID resolves the id that owns products and status projections:
// the parent account for sub-accounts, the user itself otherwise.
func (u *User) AccountID() uuid.UUID {
	if u.CreatedBy != nil {
		return *u.CreatedBy
	}
	return u.ID
}
