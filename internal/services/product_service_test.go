// internal/services/product_service_test.go
package services

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

func TestCreateProductAssignsCodeAndOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)

	product, err := svc.CreateProduct(&CreateProductRequest{Name: "Arabica Coffee"}, owner)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), product.Code)
	require.NotNil(t, product.UpdatedBy)
	assert.Equal(t, owner.ID, *product.UpdatedBy)

	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, owner.ID))
}

func TestCreateProductBySubAccountOwnedByParent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	parent := createTestUser(t, db, models.RoleOwner, nil)
	sub := createTestUser(t, db, models.RoleOwner, parent)

	product, err := svc.CreateProduct(&CreateProductRequest{Name: "Black Pepper"}, sub)
	require.NoError(t, err)

	require.NotNil(t, product.UpdatedBy)
	assert.Equal(t, parent.ID, *product.UpdatedBy)

	// Both accounts get the normal projection.
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, sub.ID))
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, parent.ID))
}

func TestCreateProductRegistersRfidTag(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)

	product, err := svc.CreateProduct(&CreateProductRequest{Name: "Green Tea"}, owner)
	require.NoError(t, err)

	var rfid models.Rfid
	err = db.Where("item_type = ? AND item_id = ?", models.ItemTypeProduct, product.ID).
		First(&rfid).Error
	require.NoError(t, err)
	assert.Equal(t, product.Code, rfid.Code)
	require.NotNil(t, rfid.UpdatedBy)
	assert.Equal(t, owner.ID, *rfid.UpdatedBy)
}

func TestDeleteProductRemovesProjectionsAndRfid(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	product := createTestProduct(t, db, owner)

	require.NoError(t, svc.DeleteProduct(product.ID, owner, models.RoleOwner))

	_, err := svc.GetProduct(product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	var rfid models.Rfid
	err = db.Where("item_type = ? AND item_id = ?", models.ItemTypeProduct, product.ID).
		First(&rfid).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var projections int64
	require.NoError(t, db.Model(&models.ProductTransferStatus{}).
		Where("product_id = ?", product.ID).Count(&projections).Error)
	assert.Zero(t, projections)
}

func TestGetProductDetail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	product := createTestProduct(t, db, owner)

	resource := &models.Resource{
		Name:     "harvest.jpg",
		FilePath: "resources/harvest.jpg",
		FileType: "image/jpeg",
		FileSize: 2048,
	}
	require.NoError(t, db.Create(resource).Error)
	require.NoError(t, db.Create(&models.ItemResource{
		ItemType:   models.ItemTypeProduct,
		ItemID:     product.ID,
		ResourceID: resource.ID,
	}).Error)

	detail, err := svc.GetProductDetail(product.ID, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, product.ID, detail.ID)
	assert.Equal(t, models.ProductStatusNormal, detail.TransferStatus)
	assert.Equal(t, product.Code, detail.RfidCode)

	require.NotNil(t, detail.Owner)
	assert.Equal(t, owner.ID, detail.Owner.ID)
	assert.Equal(t, owner.Name, detail.Owner.Name)
	assert.Equal(t, owner.Email, detail.Owner.Email)

	require.Len(t, detail.Resources, 1)
	assert.Equal(t, resource.ID, detail.Resources[0].ID)

	_, err = svc.GetProductDetail(uuid.New(), owner.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetViewerStatusDefaultsToNormal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	other := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	status, err := svc.GetViewerStatus(product.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusNormal, status)
}

func TestGetProductByCode(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	product := createTestProduct(t, db, owner)

	found, err := svc.GetProductByCode(product.Code)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)

	_, err = svc.GetProductByCode("ZZZZZZ")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListProductsScopedToAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	other := createTestUser(t, db, models.RoleOwner, nil)
	admin := createTestUser(t, db, models.RoleAdmin, nil)

	createTestProduct(t, db, owner)
	createTestProduct(t, db, owner)
	createTestProduct(t, db, other)

	params := utils.PaginationParams{Page: 1, Limit: 10, Sort: "id", Order: "desc"}

	forOwner, err := svc.ListProducts(owner, models.RoleOwner, ProductListFilter{}, params)
	require.NoError(t, err)
	assert.Len(t, forOwner.Data.([]ProductWithStatus), 2)

	forAdmin, err := svc.ListProducts(admin, models.RoleAdmin, ProductListFilter{}, params)
	require.NoError(t, err)
	assert.Len(t, forAdmin.Data.([]ProductWithStatus), 3)
}

func TestListProductsStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)

	requested := createTestProduct(t, db, owner)
	createTestProduct(t, db, owner)

	transfers := newTransferService(db)
	_, err := transfers.CreateRequest(&CreateTransferRequest{ProductID: requested.ID}, customer)
	require.NoError(t, err)

	params := utils.PaginationParams{Page: 1, Limit: 10, Sort: "id", Order: "desc"}

	pending, err := svc.ListProducts(owner, models.RoleOwner, ProductListFilter{Status: models.ProductStatusPending}, params)
	require.NoError(t, err)
	pendingProducts := pending.Data.([]ProductWithStatus)
	require.Len(t, pendingProducts, 1)
	assert.Equal(t, requested.ID, pendingProducts[0].ID)

	normal, err := svc.ListProducts(owner, models.RoleOwner, ProductListFilter{Status: models.ProductStatusNormal}, params)
	require.NoError(t, err)
	assert.Len(t, normal.Data.([]ProductWithStatus), 1)
}

func TestUpdateProductRequiresOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	other := createTestUser(t, db, models.RoleOwner, nil)
	product := createTestProduct(t, db, owner)

	newName := "Renamed"
	_, err := svc.UpdateProduct(product.ID, &UpdateProductRequest{Name: &newName}, other, models.RoleOwner)
	assert.ErrorIs(t, err, ErrNoPermission)

	updated, err := svc.UpdateProduct(product.ID, &UpdateProductRequest{Name: &newName}, owner, models.RoleOwner)
	require.NoError(t, err)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", updated.ID).Error)
	assert.Equal(t, "Renamed", reloaded.Name)
}

func TestBulkSetStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	first := createTestUser(t, db, models.RoleCustomer, nil)
	second := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	require.NoError(t, svc.SetViewerStatus(db, product.ID, first, models.ProductStatusPending))
	require.NoError(t, svc.SetViewerStatus(db, product.ID, second, models.ProductStatusPending))

	require.NoError(t, svc.BulkSetStatus(db, product.ID, models.ProductStatusPending, models.ProductStatusDenied))

	assert.Equal(t, models.ProductStatusDenied, viewerStatus(t, db, product.ID, first.ID))
	assert.Equal(t, models.ProductStatusDenied, viewerStatus(t, db, product.ID, second.ID))
	// The owner's normal projection is untouched.
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, owner.ID))
}

func TestListHistoryNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	a := createTestUser(t, db, models.RoleCustomer, nil)
	b := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	require.NoError(t, svc.RecordHistory(db, product.ID, owner.ID, a.ID))
	require.NoError(t, svc.RecordHistory(db, product.ID, a.ID, b.ID))

	result, err := svc.ListHistory(product.ID, utils.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)

	history := result.Data.([]models.ProductHistory)
	require.Len(t, history, 2)
	assert.Equal(t, 1, result.PageTotal)
}
