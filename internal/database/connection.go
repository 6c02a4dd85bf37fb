// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farmtrace/agritrace-backend/internal/config"
	"github.com/farmtrace/agritrace-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config

	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	err := db.AutoMigrate(
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
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_created_by ON users(created_by)",

		"CREATE INDEX IF NOT EXISTS idx_products_owner ON products(updated_by)",
		"CREATE INDEX IF NOT EXISTS idx_products_farm ON products(farm_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_code ON products(code)",

		"CREATE INDEX IF NOT EXISTS idx_transfer_requests_product_status ON transfer_requests(product_id, transfer_status_id)",
		"CREATE INDEX IF NOT EXISTS idx_transfer_requests_to_user ON transfer_requests(transfer_to_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_transfer_requests_from_user ON transfer_requests(transfer_from_user_id)",

		"CREATE INDEX IF NOT EXISTS idx_product_transfer_status_viewer ON product_transfer_status(product_id, updated_by)",
		"CREATE INDEX IF NOT EXISTS idx_product_history_product ON product_history(product_id, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_item_resources_item ON item_resources(item_type, item_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedInitialData creates the role and transfer-status reference rows and
// the default admin account when they are missing.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	roles := map[models.RoleKey]string{
		models.RoleAdmin:    "Platform administrator",
		models.RoleOwner:    "Farm owner",
		models.RoleCustomer: "Customer",
	}
	for key, description := range roles {
		var count int64
		db.Model(&models.Role{}).Where("key = ?", key).Count(&count)
		if count == 0 {
			role := &models.Role{Key: key, Description: description}
			if err := db.Create(role).Error; err != nil {
				return fmt.Errorf("failed to seed role %s: %w", key, err)
			}
		}
	}

	statuses := []models.TransferStatusName{
		models.TransferStatusPending,
		models.TransferStatusAccepted,
		models.TransferStatusDenied,
	}
	for _, name := range statuses {
		var count int64
		db.Model(&models.TransferStatus{}).Where("name = ?", name).Count(&count)
		if count == 0 {
			status := &models.TransferStatus{Name: name}
			if err := db.Create(status).Error; err != nil {
				return fmt.Errorf("failed to seed transfer status %s: %w", name, err)
			}
		}
	}

	var adminRole models.Role
	if err := db.Where("key = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		return fmt.Errorf("admin role missing after seed: %w", err)
	}

	var adminCount int64
	db.Model(&models.User{}).Where("role_id = ?", adminRole.ID).Count(&adminCount)
	if adminCount == 0 {
		admin := &models.User{
			Email:  "admin@agritrace.local",
			Name:   "System Administrator",
			RoleID: adminRole.ID,
		}
		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}
		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		logrus.Info("Default admin user created")
	}

	logrus.Info("Initial data seeding completed")
	return nil
}
