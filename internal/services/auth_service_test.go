// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/config"
	"github.com/farmtrace/agritrace-backend/internal/models"
)

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(db, config.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenTTL:  1,
		RefreshTokenTTL: 24,
	}, models.DefaultRolePolicy())
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register(&RegisterRequest{
		Email:    "grower@example.com",
		Password: "Password1",
		Name:     "Grower",
		Role:     "owner",
	})
	require.NoError(t, err)
	require.NotNil(t, user.Role)
	assert.Equal(t, models.RoleOwner, user.Role.Key)

	resp, err := svc.Login(&LoginRequest{Email: "grower@example.com", Password: "Password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{
		Email:    "sneaky@example.com",
		Password: "Password1",
		Name:     "Sneaky",
		Role:     "admin",
	})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	req := &RegisterRequest{
		Email:    "dup@example.com",
		Password: "Password1",
		Name:     "First",
		Role:     "customer",
	}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{
		Email:    "grower@example.com",
		Password: "Password1",
		Name:     "Grower",
		Role:     "owner",
	})
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Email: "grower@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidLogin)

	_, err = svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "Password1"})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(db)

	_, err := svc.Register(&RegisterRequest{
		Email:    "grower@example.com",
		Password: "Password1",
		Name:     "Grower",
		Role:     "owner",
	})
	require.NoError(t, err)

	login, err := svc.Login(&LoginRequest{Email: "grower@example.com", Password: "Password1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(&RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(&RefreshRequest{RefreshToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestCreateSubAccount(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	parent := createTestUser(t, db, models.RoleOwner, nil)

	sub, err := users.CreateSubAccount(&CreateSubAccountRequest{
		Email:    "sub@example.com",
		Password: "Password1",
		Name:     "Field Hand",
	}, parent)
	require.NoError(t, err)

	require.NotNil(t, sub.CreatedBy)
	assert.Equal(t, parent.ID, *sub.CreatedBy)
	assert.Equal(t, parent.RoleID, sub.RoleID)
	assert.Equal(t, parent.ID, sub.AccountID())

	// Sub-accounts cannot create further sub-accounts.
	_, err = users.CreateSubAccount(&CreateSubAccountRequest{
		Email:    "subsub@example.com",
		Password: "Password1",
		Name:     "Nested",
	}, sub)
	assert.ErrorIs(t, err, ErrNoPermission)
}
