// internal/services/resource_service.go
package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/config"
	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

// ResourceService stores uploaded files and the rows that attach them to
// farms, trees, products and fertilizers. Bytes go to S3 when AWS
// credentials are configured, otherwise to the local static directory.
type ResourceService struct {
	db       *gorm.DB
	aws      config.AWSConfig
	storage  config.StorageConfig
	uploader *s3manager.Uploader
}

func NewResourceService(db *gorm.DB, awsCfg config.AWSConfig, storageCfg config.StorageConfig) *ResourceService {
	s := &ResourceService{db: db, aws: awsCfg, storage: storageCfg}

	if awsCfg.AccessKeyID != "" && awsCfg.SecretAccessKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(awsCfg.Region),
			Credentials: credentials.NewStaticCredentials(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, ""),
		})
		if err != nil {
			logrus.WithError(err).Warn("Failed to create AWS session, falling back to local storage")
		} else {
			s.uploader = s3manager.NewUploader(sess)
		}
	}

	return s
}

type AttachResourceRequest struct {
	ItemType   models.ItemType `json:"item_type" binding:"required,oneof=farm tree product fertilizer"`
	ItemID     uuid.UUID       `json:"item_id" binding:"required"`
	ResourceID uuid.UUID       `json:"resource_id" binding:"required"`
}

// Upload stores the file and records it as a resource.
func (s *ResourceService) Upload(fileHeader *multipart.FileHeader, uploaderID uuid.UUID) (*models.Resource, error) {
	maxSize := s.storage.MaxSizeMB * 1024 * 1024
	if fileHeader.Size > maxSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	ext := filepath.Ext(fileHeader.Filename)
	key := fmt.Sprintf("resources/%s%s", uuid.New(), ext)

	var filePath string
	if s.uploader != nil {
		filePath, err = s.uploadToS3(file, key, fileHeader.Header.Get("Content-Type"))
	} else {
		filePath, err = s.uploadToLocal(fileHeader, key)
	}
	if err != nil {
		return nil, err
	}

	resource := &models.Resource{
		Name:      fileHeader.Filename,
		FilePath:  filePath,
		FileType:  strings.TrimPrefix(ext, "."),
		FileSize:  fileHeader.Size,
		UpdatedBy: &uploaderID,
	}
	if err := s.db.Create(resource).Error; err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return resource, nil
}

func (s *ResourceService) uploadToS3(file multipart.File, key, contentType string) (string, error) {
	result, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.aws.S3Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if s.aws.CloudFrontURL != "" {
		return s.aws.CloudFrontURL + "/" + key, nil
	}
	return result.Location, nil
}

func (s *ResourceService) uploadToLocal(fileHeader *multipart.FileHeader, key string) (string, error) {
	dst := filepath.Join(s.storage.StaticPath, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return "/static/" + key, nil
}

func (s *ResourceService) GetResource(id uuid.UUID) (*models.Resource, error) {
	var resource models.Resource
	if err := s.db.First(&resource, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}
	return &resource, nil
}

// Attach links a resource to an item.
func (s *ResourceService) Attach(req *AttachResourceRequest, callerID uuid.UUID) (*models.ItemResource, error) {
	if _, err := s.GetResource(req.ResourceID); err != nil {
		return nil, err
	}

	link := &models.ItemResource{
		ItemType:   req.ItemType,
		ItemID:     req.ItemID,
		ResourceID: req.ResourceID,
		UpdatedBy:  &callerID,
	}
	if err := s.db.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to attach resource: %w", err)
	}

	return link, nil
}

// ListForItem returns the resources attached to one item, oldest first.
func (s *ResourceService) ListForItem(itemType models.ItemType, itemID uuid.UUID, params utils.PaginationParams) (utils.PaginationResult, error) {
	query := s.db.Model(&models.Resource{}).
		Joins("JOIN item_resources ON item_resources.resource_id = resources.id").
		Where("item_resources.item_type = ? AND item_resources.item_id = ?", itemType, itemID).
		Where("item_resources.deleted_at IS NULL")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count resources: %w", err)
	}

	var resources []models.Resource
	err := utils.ApplyPagination(query.Order("item_resources.created_at"), params).Find(&resources).Error
	if err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list resources: %w", err)
	}

	return utils.CreatePaginationResult(resources, total, params), nil
}

// Detach removes the link between an item and a resource. The resource
// itself survives; it may be attached elsewhere.
func (s *ResourceService) Detach(itemType models.ItemType, itemID, resourceID uuid.UUID) error {
	res := s.db.Where("item_type = ? AND item_id = ? AND resource_id = ?", itemType, itemID, resourceID).
		Delete(&models.ItemResource{})
	if res.Error != nil {
		return fmt.Errorf("failed to detach resource: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrResourceNotFound
	}
	return nil
}

// DeleteResource removes the resource row and every attachment of it.
func (s *ResourceService) DeleteResource(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Resource{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete resource: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrResourceNotFound
		}
		err := tx.Where("resource_id = ?", id).Delete(&models.ItemResource{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete resource attachments: %w", err)
		}
		return nil
	})
}
