// internal/services/farm_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type FarmService struct {
	db *gorm.DB
}

func NewFarmService(db *gorm.DB) *FarmService {
	return &FarmService{db: db}
}

type CreateFarmRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=255"`
	Code        string   `json:"code"`
	Area        *float64 `json:"area"`
	Description string   `json:"description"`
}

type UpdateFarmRequest struct {
	Name        *string  `json:"name"`
	Code        *string  `json:"code"`
	Area        *float64 `json:"area"`
	Description *string  `json:"description"`
}

type FarmLinkRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
}

// CreateFarm registers a farm under the caller's account.
func (s *FarmService) CreateFarm(req *CreateFarmRequest, owner *models.User) (*models.Farm, error) {
	ownerID := owner.AccountID()

	farm := &models.Farm{
		Name:        req.Name,
		Code:        req.Code,
		Area:        req.Area,
		Description: req.Description,
		UserID:      ownerID,
		UpdatedBy:   &owner.ID,
	}

	if err := s.db.Create(farm).Error; err != nil {
		return nil, fmt.Errorf("failed to create farm: %w", err)
	}

	return farm, nil
}

func (s *FarmService) GetFarm(id uuid.UUID) (*models.Farm, error) {
	var farm models.Farm
	if err := s.db.First(&farm, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFarmNotFound
		}
		return nil, fmt.Errorf("failed to load farm: %w", err)
	}
	return &farm, nil
}

// ListFarms scopes to the caller's account unless the caller is an admin.
func (s *FarmService) ListFarms(viewer *models.User, role models.RoleKey, params utils.PaginationParams) (utils.PaginationResult, error) {
	query := s.db.Model(&models.Farm{})

	if role != models.RoleAdmin {
		query = query.Where("user_id = ?", viewer.AccountID())
	}

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count farms: %w", err)
	}

	var farms []models.Farm
	query = utils.ApplySort(query, params, []string{"id", "name", "code", "created_at"})
	if err := utils.ApplyPagination(query, params).Find(&farms).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list farms: %w", err)
	}

	return utils.CreatePaginationResult(farms, total, params), nil
}

func (s *FarmService) canManage(farm *models.Farm, caller *models.User, role models.RoleKey) bool {
	if role == models.RoleAdmin {
		return true
	}
	return farm.UserID == caller.AccountID()
}

func (s *FarmService) UpdateFarm(id uuid.UUID, req *UpdateFarmRequest, caller *models.User, role models.RoleKey) (*models.Farm, error) {
	farm, err := s.GetFarm(id)
	if err != nil {
		return nil, err
	}

	if !s.canManage(farm, caller, role) {
		return nil, ErrNoPermission
	}

	updates := map[string]interface{}{"updated_by": caller.ID}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Code != nil {
		updates["code"] = *req.Code
	}
	if req.Area != nil {
		updates["area"] = *req.Area
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if err := s.db.Model(farm).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update farm: %w", err)
	}

	return farm, nil
}

func (s *FarmService) DeleteFarm(id uuid.UUID, caller *models.User, role models.RoleKey) error {
	farm, err := s.GetFarm(id)
	if err != nil {
		return err
	}

	if !s.canManage(farm, caller, role) {
		return ErrNoPermission
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(farm).Error; err != nil {
			return fmt.Errorf("failed to delete farm: %w", err)
		}
		if err := tx.Where("farm_id = ?", id).Delete(&models.FarmTree{}).Error; err != nil {
			return fmt.Errorf("failed to delete farm trees: %w", err)
		}
		if err := tx.Where("farm_id = ?", id).Delete(&models.FarmFertilizer{}).Error; err != nil {
			return fmt.Errorf("failed to delete farm fertilizers: %w", err)
		}
		return nil
	})
}

// AddTree links a tree variety to the farm.
func (s *FarmService) AddTree(farmID, treeID uuid.UUID, caller *models.User, role models.RoleKey) (*models.FarmTree, error) {
	farm, err := s.GetFarm(farmID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(farm, caller, role) {
		return nil, ErrNoPermission
	}

	var tree models.Tree
	if err := s.db.First(&tree, "id = ?", treeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}

	link := &models.FarmTree{FarmID: farmID, TreeID: treeID, UpdatedBy: &caller.ID}
	if err := s.db.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to link tree to farm: %w", err)
	}

	return link, nil
}

// AddFertilizer links a fertilizer to the farm.
func (s *FarmService) AddFertilizer(farmID, fertilizerID uuid.UUID, caller *models.User, role models.RoleKey) (*models.FarmFertilizer, error) {
	farm, err := s.GetFarm(farmID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(farm, caller, role) {
		return nil, ErrNoPermission
	}

	var fertilizer models.Fertilizer
	if err := s.db.First(&fertilizer, "id = ?", fertilizerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load fertilizer: %w", err)
	}

	link := &models.FarmFertilizer{FarmID: farmID, FertilizerID: fertilizerID, UpdatedBy: &caller.ID}
	if err := s.db.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to link fertilizer to farm: %w", err)
	}

	return link, nil
}

// ListTrees returns the tree varieties linked to a farm.
func (s *FarmService) ListTrees(farmID uuid.UUID) ([]models.Tree, error) {
	if _, err := s.GetFarm(farmID); err != nil {
		return nil, err
	}

	var trees []models.Tree
	err := s.db.
		Joins("JOIN farm_trees ON farm_trees.tree_id = trees.id").
		Where("farm_trees.farm_id = ? AND farm_trees.deleted_at IS NULL", farmID).
		Find(&trees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list farm trees: %w", err)
	}
	return trees, nil
}

// ListFertilizers returns the fertilizers linked to a farm.
func (s *FarmService) ListFertilizers(farmID uuid.UUID) ([]models.Fertilizer, error) {
	if _, err := s.GetFarm(farmID); err != nil {
		return nil, err
	}

	var fertilizers []models.Fertilizer
	err := s.db.
		Joins("JOIN farm_fertilizers ON farm_fertilizers.fertilizer_id = fertilizers.id").
		Where("farm_fertilizers.farm_id = ? AND farm_fertilizers.deleted_at IS NULL", farmID).
		Find(&fertilizers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list farm fertilizers: %w", err)
	}
	return fertilizers, nil
}
