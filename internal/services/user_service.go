// internal/services/user_service.go
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

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type CreateSubAccountRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strong_password"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Address  string `json:"address"`
}

type UpdateUserRequest struct {
	Name     *string    `json:"name"`
	Address  *string    `json:"address"`
	DOB      *time.Time `json:"dob"`
	AvatarID *uuid.UUID `json:"avatar_id"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,strong_password"`
}

func (s *UserService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// CreateSubAccount registers a user under the caller's account. Sub-accounts
// inherit the parent's role and act on the parent's products.
func (s *UserService) CreateSubAccount(req *CreateSubAccountRequest, parent *models.User) (*models.User, error) {
	if parent.IsSubAccount() {
		return nil, ErrNoPermission
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	user := &models.User{
		Email:     req.Email,
		Name:      req.Name,
		Address:   req.Address,
		RoleID:    parent.RoleID,
		CreatedBy: &parent.ID,
		UpdatedBy: &parent.ID,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create sub-account: %w", err)
	}

	return user, nil
}

// ListSubAccounts returns users created under the given parent account.
func (s *UserService) ListSubAccounts(parentID uuid.UUID, params utils.PaginationParams) (utils.PaginationResult, error) {
	query := s.db.Model(&models.User{}).Where("created_by = ?", parentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count sub-accounts: %w", err)
	}

	var users []models.User
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&users).Error
	if err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list sub-accounts: %w", err)
	}

	return utils.CreatePaginationResult(users, total, params), nil
}

// ListUsers is the admin user directory.
func (s *UserService) ListUsers(params utils.PaginationParams) (utils.PaginationResult, error) {
	query := s.db.Model(&models.User{})

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).Preload("Role").Find(&users).Error
	if err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list users: %w", err)
	}

	return utils.CreatePaginationResult(users, total, params), nil
}

func (s *UserService) UpdateUser(id uuid.UUID, req *UpdateUserRequest, caller *models.User, role models.RoleKey) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin && id != caller.ID {
		return nil, ErrNoPermission
	}

	updates := map[string]interface{}{"updated_by": caller.ID}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.DOB != nil {
		updates["dob"] = *req.DOB
	}
	if req.AvatarID != nil {
		updates["avatar_id"] = *req.AvatarID
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *UserService) ChangePassword(id uuid.UUID, req *ChangePasswordRequest) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}

	if err := user.CheckPassword(req.CurrentPassword); err != nil {
		return ErrInvalidLogin
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(user).Update("password_hash", user.PasswordHash).Error; err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	return nil
}

// DeleteUser soft-deletes a user and their sub-accounts.
func (s *UserService) DeleteUser(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		if err := tx.Delete(&models.User{}, "created_by = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete sub-accounts: %w", err)
		}
		return nil
	})
}
