// internal/services/testutil_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farmtrace/agritrace-backend/internal/models"
)

// setupTestDB opens a uniquely named in-memory database, migrates the
// schema and seeds the reference rows.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Category{},
		&models.Farm{},
		&models.Tree{},
		&models.Fertilizer{},
		&models.FarmTree{},
		&models.FarmFertilizer{},
		&models.Product{},
		&models.ProductTransferStatus{},
		&models.ProductHistory{},
		&models.Rfid{},
		&models.TransferStatus{},
		&models.TransferRequest{},
		&models.Resource{},
		&models.ItemResource{},
	)
	require.NoError(t, err)

	for _, key := range []models.RoleKey{models.RoleAdmin, models.RoleOwner, models.RoleCustomer} {
		require.NoError(t, db.Create(&models.Role{Key: key}).Error)
	}
	for _, name := range []models.TransferStatusName{
		models.TransferStatusPending,
		models.TransferStatusAccepted,
		models.TransferStatusDenied,
	} {
		require.NoError(t, db.Create(&models.TransferStatus{Name: name}).Error)
	}

	return db
}

func roleByKey(t *testing.T, db *gorm.DB, key models.RoleKey) *models.Role {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where("key = ?", key).First(&role).Error)
	return &role
}

func statusID(t *testing.T, db *gorm.DB, name models.TransferStatusName) uuid.UUID {
	t.Helper()
	var status models.TransferStatus
	require.NoError(t, db.Where("name = ?", name).First(&status).Error)
	return status.ID
}

// createTestUser inserts a user with the given role. A non-nil parent
// makes it a sub-account of that parent.
func createTestUser(t *testing.T, db *gorm.DB, key models.RoleKey, parent *models.User) *models.User {
	t.Helper()

	role := roleByKey(t, db, key)
	user := &models.User{
		Email:  fmt.Sprintf("%s@example.com", uuid.NewString()),
		Name:   "Test User",
		RoleID: role.ID,
	}
	if parent != nil {
		user.CreatedBy = &parent.ID
	}
	require.NoError(t, user.SetPassword("Password1"))
	require.NoError(t, db.Create(user).Error)
	user.Role = role
	return user
}

// createTestProduct inserts a product owned by the given user's account,
// through the same path the API uses.
func createTestProduct(t *testing.T, db *gorm.DB, owner *models.User) *models.Product {
	t.Helper()

	products := NewProductService(db)
	product, err := products.CreateProduct(&CreateProductRequest{Name: "Robusta Coffee"}, owner)
	require.NoError(t, err)
	return product
}

func viewerStatus(t *testing.T, db *gorm.DB, productID, viewerID uuid.UUID) models.ProductStatus {
	t.Helper()

	status, err := NewProductService(db).GetViewerStatus(productID, viewerID)
	require.NoError(t, err)
	return status
}

func requestStatusID(t *testing.T, db *gorm.DB, requestID uuid.UUID) uuid.UUID {
	t.Helper()

	var request models.TransferRequest
	require.NoError(t, db.First(&request, "id = ?", requestID).Error)
	return request.TransferStatusID
}
