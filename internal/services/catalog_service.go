// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

// CatalogService manages the shared reference data: tree varieties,
// fertilizers and product categories. Writes are admin-only at the route
// level; reads are open to every authenticated user.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

type CreateTreeRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type CreateFertilizerRequest struct {
	Name            string     `json:"name" binding:"required,min=1,max=255"`
	Code            string     `json:"code"`
	Description     string     `json:"description"`
	Manufacturer    string     `json:"manufacturer"`
	ManufactureDate *time.Time `json:"manufacture_date"`
	Compositions    string     `json:"compositions"`
	Type            string     `json:"type"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description"`
}

func (s *CatalogService) CreateTree(req *CreateTreeRequest, callerID uuid.UUID) (*models.Tree, error) {
	tree := &models.Tree{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		UpdatedBy:   &callerID,
	}
	if err := s.db.Create(tree).Error; err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}
	return tree, nil
}

func (s *CatalogService) GetTree(id uuid.UUID) (*models.Tree, error) {
	var tree models.Tree
	if err := s.db.First(&tree, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	return &tree, nil
}

func (s *CatalogService) ListTrees(params utils.PaginationParams) (utils.PaginationResult, error) {
	return s.list(&models.Tree{}, &[]models.Tree{}, params)
}

func (s *CatalogService) DeleteTree(id uuid.UUID) error {
	return s.delete(&models.Tree{}, id)
}

func (s *CatalogService) CreateFertilizer(req *CreateFertilizerRequest, callerID uuid.UUID) (*models.Fertilizer, error) {
	fertilizer := &models.Fertilizer{
		Name:            req.Name,
		Code:            req.Code,
		Description:     req.Description,
		Manufacturer:    req.Manufacturer,
		ManufactureDate: req.ManufactureDate,
		Compositions:    req.Compositions,
		Type:            req.Type,
		UpdatedBy:       &callerID,
	}
	if err := s.db.Create(fertilizer).Error; err != nil {
		return nil, fmt.Errorf("failed to create fertilizer: %w", err)
	}
	return fertilizer, nil
}

func (s *CatalogService) GetFertilizer(id uuid.UUID) (*models.Fertilizer, error) {
	var fertilizer models.Fertilizer
	if err := s.db.First(&fertilizer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load fertilizer: %w", err)
	}
	return &fertilizer, nil
}

func (s *CatalogService) ListFertilizers(params utils.PaginationParams) (utils.PaginationResult, error) {
	return s.list(&models.Fertilizer{}, &[]models.Fertilizer{}, params)
}

func (s *CatalogService) DeleteFertilizer(id uuid.UUID) error {
	return s.delete(&models.Fertilizer{}, id)
}

func (s *CatalogService) CreateCategory(req *CreateCategoryRequest, callerID uuid.UUID) (*models.Category, error) {
	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		UpdatedBy:   &callerID,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) ListCategories(params utils.PaginationParams) (utils.PaginationResult, error) {
	return s.list(&models.Category{}, &[]models.Category{}, params)
}

func (s *CatalogService) DeleteCategory(id uuid.UUID) error {
	return s.delete(&models.Category{}, id)
}

func (s *CatalogService) list(model interface{}, dest interface{}, params utils.PaginationParams) (utils.PaginationResult, error) {
	query := s.db.Model(model)

	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count catalog entries: %w", err)
	}

	if err := utils.ApplyPagination(query.Order("name"), params).Find(dest).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list catalog entries: %w", err)
	}

	return utils.CreatePaginationResult(dest, total, params), nil
}

func (s *CatalogService) delete(model interface{}, id uuid.UUID) error {
	res := s.db.Delete(model, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete catalog entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
