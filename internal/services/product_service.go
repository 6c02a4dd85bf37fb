// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

const (
	productCodeLength   = 6
	productCodeAttempts = 10
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

type CreateProductRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=255"`
	FarmID        *uuid.UUID `json:"farm_id"`
	CategoryID    *uuid.UUID `json:"category_id"`
	PriceInRetail *float64   `json:"price_in_retail"`
	Description   string     `json:"description"`
}

type UpdateProductRequest struct {
	Name          *string    `json:"name"`
	FarmID        *uuid.UUID `json:"farm_id"`
	CategoryID    *uuid.UUID `json:"category_id"`
	PriceInRetail *float64   `json:"price_in_retail"`
	Description   *string    `json:"description"`
}

// ProductWithStatus is a product together with the caller's view of its
// transfer state.
type ProductWithStatus struct {
	models.Product
	TransferStatus models.ProductStatus `json:"transfer_status"`
}

// CreateProduct registers a product under the caller's account. Sub-account
// callers create products owned by their parent account.
func (s *ProductService) CreateProduct(req *CreateProductRequest, creator *models.User) (*models.Product, error) {
	ownerID := creator.AccountID()

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:          req.Name,
		Code:          code,
		FarmID:        req.FarmID,
		CategoryID:    req.CategoryID,
		PriceInRetail: req.PriceInRetail,
		Description:   req.Description,
		UpdatedBy:     &ownerID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if err := s.SetViewerStatus(tx, product.ID, creator, models.ProductStatusNormal); err != nil {
			return err
		}
		rfid := &models.Rfid{
			Code:      code,
			ItemType:  models.ItemTypeProduct,
			ItemID:    product.ID,
			UpdatedBy: &ownerID,
		}
		if err := tx.Create(rfid).Error; err != nil {
			return fmt.Errorf("failed to create rfid tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// generateUniqueCode draws random codes until one is free. The uniqueness
// window between check and insert is closed by the unique index on code.
func (s *ProductService) generateUniqueCode() (string, error) {
	for i := 0; i < productCodeAttempts; i++ {
		code, err := utils.GenerateCode(productCodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate product code: %w", err)
		}

		var count int64
		if err := s.db.Model(&models.Product{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check product code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}

	return "", fmt.Errorf("could not generate a unique product code after %d attempts", productCodeAttempts)
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Farm").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ProductOwner is the owner summary embedded in a product detail view.
type ProductOwner struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Address  string     `json:"address"`
	AvatarID *uuid.UUID `json:"avatar_id"`
}

// ProductDetail is the single-product view: the product, the viewer's
// projection, the current owner, the rfid tag and attached resources.
type ProductDetail struct {
	ProductWithStatus
	Owner     *ProductOwner     `json:"owner,omitempty"`
	RfidCode  string            `json:"rfid_code,omitempty"`
	Resources []models.Resource `json:"resources"`
}

func (s *ProductService) GetProductDetail(id, viewerID uuid.UUID) (*ProductDetail, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	status, err := s.GetViewerStatus(id, viewerID)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{
		ProductWithStatus: ProductWithStatus{Product: *product, TransferStatus: status},
		Resources:         []models.Resource{},
	}

	if product.UpdatedBy != nil {
		var owner models.User
		err := s.db.First(&owner, "id = ?", *product.UpdatedBy).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load product owner: %w", err)
		}
		if err == nil {
			detail.Owner = &ProductOwner{
				ID:       owner.ID,
				Name:     owner.Name,
				Email:    owner.Email,
				Address:  owner.Address,
				AvatarID: owner.AvatarID,
			}
		}
	}

	var rfid models.Rfid
	err = s.db.Where("item_type = ? AND item_id = ?", models.ItemTypeProduct, id).First(&rfid).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load rfid tag: %w", err)
	}
	if err == nil {
		detail.RfidCode = rfid.Code
	}

	err = s.db.
		Joins("JOIN item_resources ON item_resources.resource_id = resources.id").
		Where("item_resources.item_type = ? AND item_resources.item_id = ?", models.ItemTypeProduct, id).
		Where("item_resources.deleted_at IS NULL").
		Order("item_resources.created_at").
		Find(&detail.Resources).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product resources: %w", err)
	}

	return detail, nil
}

// GetProductByCode is the public traceability lookup.
func (s *ProductService) GetProductByCode(code string) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Farm").First(&product, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by code: %w", err)
	}
	return &product, nil
}

type ProductListFilter struct {
	FarmID     *uuid.UUID
	CategoryID *uuid.UUID
	Code       string
	Status     models.ProductStatus
	MinPrice   *float64
	MaxPrice   *float64
}

// ListProducts returns the viewer's products with their per-viewer transfer
// status. Admins see every product; other callers see products owned by
// their account.
func (s *ProductService) ListProducts(viewer *models.User, role models.RoleKey, filter ProductListFilter, params utils.PaginationParams) (utils.PaginationResult, error) {
	query := s.db.Model(&models.Product{})

	if role != models.RoleAdmin {
		query = query.Where("updated_by = ?", viewer.AccountID())
	}

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", searchTerm, searchTerm)
	}
	if filter.FarmID != nil {
		query = query.Where("farm_id = ?", *filter.FarmID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.MinPrice != nil {
		query = query.Where("price_in_retail >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price_in_retail <= ?", *filter.MaxPrice)
	}

	if filter.Status != "" {
		projection := s.db.Model(&models.ProductTransferStatus{}).
			Select("product_id").
			Where("updated_by = ?", viewer.ID)
		if filter.Status == models.ProductStatusNormal {
			// A product with no projection row reads as normal too.
			query = query.Where("id NOT IN (?)",
				projection.Where("transfer_status != ?", models.ProductStatusNormal))
		} else {
			query = query.Where("id IN (?)",
				projection.Where("transfer_status = ?", filter.Status))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	query = utils.ApplySort(query, params, []string{"id", "name", "code", "created_at"})
	if err := utils.ApplyPagination(query, params).Preload("Farm").Find(&products).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list products: %w", err)
	}

	withStatus, err := s.attachViewerStatus(products, viewer.ID)
	if err != nil {
		return utils.PaginationResult{}, err
	}

	return utils.CreatePaginationResult(withStatus, total, params), nil
}

func (s *ProductService) attachViewerStatus(products []models.Product, viewerID uuid.UUID) ([]ProductWithStatus, error) {
	result := make([]ProductWithStatus, 0, len(products))
	if len(products) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	var rows []models.ProductTransferStatus
	err := s.db.Where("product_id IN ? AND updated_by = ?", ids, viewerID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product statuses: %w", err)
	}

	statusByProduct := make(map[uuid.UUID]models.ProductStatus, len(rows))
	for _, row := range rows {
		statusByProduct[row.ProductID] = row.TransferStatus
	}

	for _, p := range products {
		status, ok := statusByProduct[p.ID]
		if !ok {
			status = models.ProductStatusNormal
		}
		result = append(result, ProductWithStatus{Product: p, TransferStatus: status})
	}

	return result, nil
}

// GetViewerStatus returns the viewer's projection for one product,
// defaulting to normal when no row exists.
func (s *ProductService) GetViewerStatus(productID, viewerID uuid.UUID) (models.ProductStatus, error) {
	var row models.ProductTransferStatus
	err := s.db.Where("product_id = ? AND updated_by = ?", productID, viewerID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ProductStatusNormal, nil
		}
		return "", fmt.Errorf("failed to get product status: %w", err)
	}
	return row.TransferStatus, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest, caller *models.User, role models.RoleKey) (*models.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin {
		if product.UpdatedBy == nil || *product.UpdatedBy != caller.AccountID() {
			return nil, ErrNoPermission
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.FarmID != nil {
		updates["farm_id"] = *req.FarmID
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.PriceInRetail != nil {
		updates["price_in_retail"] = *req.PriceInRetail
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := s.db.Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return product, nil
}

func (s *ProductService) DeleteProduct(id uuid.UUID, caller *models.User, role models.RoleKey) error {
	product, err := s.GetProduct(id)
	if err != nil {
		return err
	}

	if role != models.RoleAdmin {
		if product.UpdatedBy == nil || *product.UpdatedBy != caller.AccountID() {
			return ErrNoPermission
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		err := tx.Where("product_id = ?", id).Delete(&models.ProductTransferStatus{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete product statuses: %w", err)
		}
		err = tx.Where("item_type = ? AND item_id = ?", models.ItemTypeProduct, id).
			Delete(&models.Rfid{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete rfid tag: %w", err)
		}
		return nil
	})
}

// SetViewerStatus upserts the viewer's projection row. For sub-accounts the
// parent account receives the same projection so both see a consistent
// transfer state.
func (s *ProductService) SetViewerStatus(tx *gorm.DB, productID uuid.UUID, viewer *models.User, status models.ProductStatus) error {
	if err := s.upsertStatus(tx, productID, viewer.ID, status); err != nil {
		return err
	}
	if viewer.IsSubAccount() {
		return s.upsertStatus(tx, productID, *viewer.CreatedBy, status)
	}
	return nil
}

func (s *ProductService) upsertStatus(tx *gorm.DB, productID, viewerID uuid.UUID, status models.ProductStatus) error {
	var row models.ProductTransferStatus
	err := tx.Where("product_id = ? AND updated_by = ?", productID, viewerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ProductTransferStatus{
			ProductID:      productID,
			TransferStatus: status,
			UpdatedBy:      viewerID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create product status: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load product status: %w", err)
	}

	if err := tx.Model(&row).Update("transfer_status", status).Error; err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	return nil
}

// BulkSetStatus rewrites every projection of a product currently in the
// from state to the to state.
func (s *ProductService) BulkSetStatus(tx *gorm.DB, productID uuid.UUID, from, to models.ProductStatus) error {
	err := tx.Model(&models.ProductTransferStatus{}).
		Where("product_id = ? AND transfer_status = ?", productID, from).
		Update("transfer_status", to).Error
	if err != nil {
		return fmt.Errorf("failed to bulk update product statuses: %w", err)
	}
	return nil
}

// ReassignOwner moves the product to the new owner's account. Sub-account
// recipients resolve to their parent account.
func (s *ProductService) ReassignOwner(tx *gorm.DB, productID uuid.UUID, newOwner *models.User) error {
	ownerID := newOwner.AccountID()
	err := tx.Model(&models.Product{}).Where("id = ?", productID).Update("updated_by", ownerID).Error
	if err != nil {
		return fmt.Errorf("failed to reassign product owner: %w", err)
	}
	return nil
}

// RecordHistory appends one completed transfer to the product's history.
func (s *ProductService) RecordHistory(tx *gorm.DB, productID, fromUserID, toUserID uuid.UUID) error {
	entry := &models.ProductHistory{
		ProductID:          productID,
		TransferFromUserID: fromUserID,
		TransferToUserID:   toUserID,
		UpdatedBy:          &toUserID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record product history: %w", err)
	}
	return nil
}

// ListHistory returns the completed transfers of a product, newest first.
func (s *ProductService) ListHistory(productID uuid.UUID, params utils.PaginationParams) (utils.PaginationResult, error) {
	if _, err := s.GetProduct(productID); err != nil {
		return utils.PaginationResult{}, err
	}

	query := s.db.Model(&models.ProductHistory{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count product history: %w", err)
	}

	var history []models.ProductHistory
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&history).Error
	if err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list product history: %w", err)
	}

	return utils.CreatePaginationResult(history, total, params), nil
}
