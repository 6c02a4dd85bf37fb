// internal/models/common_test.go
package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestBeforeCreateAssignsID(t *testing.T) {
	b := &BaseModel{}
	require.NoError(t, b.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, b.ID)

	existing := uuid.New()
	keep := &BaseModel{ID: existing}
	require.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, existing, keep.ID)
}

// The schema must migrate and insert on sqlite as well as postgres; the
// test databases depend on it.
func TestAutoMigrateAndInsertOnSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Role{}, &TransferStatus{}))

	role := &Role{Key: RoleOwner}
	require.NoError(t, db.Create(role).Error)
	assert.NotEqual(t, uuid.Nil, role.ID)
}

func TestRolePolicyAllows(t *testing.T) {
	policy := DefaultRolePolicy()

	assert.True(t, policy.Allows(policy.AdminOnly, RoleAdmin))
	assert.False(t, policy.Allows(policy.AdminOnly, RoleOwner))
	assert.True(t, policy.Allows(policy.Owners, RoleOwner))
	assert.True(t, policy.Allows(policy.Customers, RoleCustomer))
	assert.False(t, policy.Allows(policy.Owners, RoleCustomer))
	assert.False(t, policy.Allows(policy.RegisterableRoles(), RoleAdmin))
}
