// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/config"
	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type AuthService struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
	policy *models.RolePolicy
}

func NewAuthService(db *gorm.DB, jwtCfg config.JWTConfig, policy *models.RolePolicy) *AuthService {
	return &AuthService{db: db, jwtCfg: jwtCfg, policy: policy}
}

type RegisterRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,strong_password"`
	Name     string     `json:"name" binding:"required,min=1,max=255"`
	Address  string     `json:"address"`
	DOB      *time.Time `json:"dob"`
	Role     string     `json:"role" binding:"required,oneof=owner customer"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// FirebaseToken lets devices register for push topics in the same
	// round trip as login.
	FirebaseToken string `json:"firebase_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type FirebaseTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *models.User `json:"user"`
}

// Register creates a primary account. Only the self-service roles may be
// claimed; admin accounts are seeded or created by other admins.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	roleKey := models.RoleKey(req.Role)
	if !s.policy.Allows(s.policy.RegisterableRoles(), roleKey) {
		return nil, ErrRoleNotAllowed
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	var role models.Role
	if err := s.db.Where("key = ?", roleKey).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}

	user := &models.User{
		Email:   req.Email,
		Name:    req.Name,
		Address: req.Address,
		DOB:     req.DOB,
		RoleID:  role.ID,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.Role = &role
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": role.Key}).Info("User registered")
	return user, nil
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	var user models.User
	err := s.db.Preload("Role").Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidLogin
	}

	if req.FirebaseToken != "" {
		if err := s.SetFirebaseToken(user.ID, req.FirebaseToken); err != nil {
			logrus.WithError(err).Warn("Failed to store firebase token at login")
		}
	}

	return s.issueTokens(&user)
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	roleKey := ""
	if user.Role != nil {
		roleKey = string(user.Role.Key)
	}

	accessToken, err := utils.GenerateJWT(user.ID, user.Email, roleKey, s.jwtCfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.jwtCfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
	}, nil
}

func (s *AuthService) Refresh(req *RefreshRequest) (*AuthResponse, error) {
	subject, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidLogin
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidLogin
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, ErrInvalidLogin
	}

	return s.issueTokens(user)
}

func (s *AuthService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// SetFirebaseToken stores the device registration token used for push
// notification topic subscriptions.
func (s *AuthService) SetFirebaseToken(userID uuid.UUID, token string) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("firebase_token", token)
	if res.Error != nil {
		return fmt.Errorf("failed to store firebase token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
