// internal/services/transfer_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

// TransferService implements the ownership transfer workflow: a customer
// requests a product from its current owner, the owner accepts or denies,
// and an acceptance reassigns ownership and denies every competing request.
type TransferService struct {
	db       *gorm.DB
	products *ProductService
	notifier *NotificationService
}

func NewTransferService(db *gorm.DB, products *ProductService, notifier *NotificationService) *TransferService {
	return &TransferService{db: db, products: products, notifier: notifier}
}

type CreateTransferRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	// FromUserID is the owner the requester believes they are asking.
	// When set, a mismatch with the actual owner rejects the request.
	FromUserID  *uuid.UUID `json:"from_user_id"`
	Description string     `json:"description"`
}

type ResolveTransferRequest struct {
	Status string `json:"status" binding:"required"`
}

type TransferListFilter struct {
	ProductID *uuid.UUID
	Status    string
	Direction string // "sent", "received" or empty for both
}

func (s *TransferService) statusByName(tx *gorm.DB, name models.TransferStatusName) (*models.TransferStatus, error) {
	var status models.TransferStatus
	if err := tx.Where("name = ?", name).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to look up transfer status: %w", err)
	}
	return &status, nil
}

func (s *TransferService) loadUser(tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// CreateRequest opens a pending transfer request for the product on behalf
// of the requester. The requester must not own the product, the product
// must have a current owner, and the requester must not already have a
// pending request for it.
func (s *TransferService) CreateRequest(req *CreateTransferRequest, requester *models.User) (*models.TransferRequest, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if product.UpdatedBy == nil {
		return nil, ErrStaleOwner
	}
	if *product.UpdatedBy == requester.AccountID() {
		return nil, ErrOwnProductRequest
	}
	if req.FromUserID != nil && *req.FromUserID != *product.UpdatedBy {
		return nil, ErrStaleOwner
	}

	owner, err := s.loadUser(s.db, *product.UpdatedBy)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrStaleOwner
		}
		return nil, err
	}

	pending, err := s.statusByName(s.db, models.TransferStatusPending)
	if err != nil {
		return nil, err
	}

	var duplicates int64
	err = s.db.Model(&models.TransferRequest{}).
		Where("product_id = ? AND transfer_to_user_id = ? AND transfer_status_id = ?",
			product.ID, requester.ID, pending.ID).
		Count(&duplicates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}
	if duplicates > 0 {
		return nil, ErrDuplicateRequest
	}

	request := &models.TransferRequest{
		ProductID:          product.ID,
		TransferFromUserID: owner.ID,
		TransferToUserID:   requester.ID,
		TransferStatusID:   pending.ID,
		Description:        req.Description,
		UpdatedBy:          &requester.ID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("failed to create transfer request: %w", err)
		}
		if err := s.products.SetViewerStatus(tx, product.ID, requester, models.ProductStatusPending); err != nil {
			return err
		}
		return s.products.SetViewerStatus(tx, product.ID, owner, models.ProductStatusPending)
	})
	if err != nil {
		return nil, err
	}

	go s.notifyRequestCreated(request, &product, requester, owner)

	request.Product = &product
	request.Status = pending
	return request, nil
}

// ResolveRequest moves a pending request to accepted or denied. An admin
// or either party named on the request may resolve it. A resolved request
// stays resolved; concurrent resolutions lose on the status
// compare-and-set and get a conflict.
func (s *TransferService) ResolveRequest(requestID uuid.UUID, statusName string, caller *models.User, role models.RoleKey) (*models.TransferRequest, error) {
	target, err := s.statusByName(s.db, models.TransferStatusName(statusName))
	if err != nil {
		return nil, err
	}

	var request models.TransferRequest
	err = s.db.Preload("Product").Preload("Status").First(&request, "id = ?", requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load transfer request: %w", err)
	}

	if role != models.RoleAdmin && !s.isParty(&request, caller) {
		return nil, ErrNoPermission
	}

	switch target.Name {
	case models.TransferStatusAccepted:
		return s.accept(&request, target, caller)
	case models.TransferStatusDenied:
		return s.deny(&request, target, caller)
	default:
		// Setting a request back to pending is a no-op.
		return &request, nil
	}
}

func (s *TransferService) accept(request *models.TransferRequest, accepted *models.TransferStatus, caller *models.User) (*models.TransferRequest, error) {
	pending, err := s.statusByName(s.db, models.TransferStatusPending)
	if err != nil {
		return nil, err
	}
	denied, err := s.statusByName(s.db, models.TransferStatusDenied)
	if err != nil {
		return nil, err
	}

	requester, err := s.loadUser(s.db, request.TransferToUserID)
	if err != nil {
		return nil, err
	}
	// Projections belong to the request's parties, not the resolver; an
	// admin resolution must still flip the owner's view.
	owner, err := s.loadUser(s.db, request.TransferFromUserID)
	if err != nil {
		return nil, err
	}

	var deniedRequesterIDs []uuid.UUID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional update doubles as the idempotence guard: a request
		// that already left pending cannot be resolved again.
		res := tx.Model(&models.TransferRequest{}).
			Where("id = ? AND transfer_status_id = ?", request.ID, pending.ID).
			Updates(map[string]interface{}{
				"transfer_status_id": accepted.ID,
				"updated_by":         caller.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to accept transfer request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRequestResolved
		}

		if err := s.products.ReassignOwner(tx, request.ProductID, requester); err != nil {
			return err
		}
		if err := s.products.SetViewerStatus(tx, request.ProductID, requester, models.ProductStatusNormal); err != nil {
			return err
		}
		if err := s.products.SetViewerStatus(tx, request.ProductID, owner, models.ProductStatusAccepted); err != nil {
			return err
		}
		if err := s.products.RecordHistory(tx, request.ProductID, request.TransferFromUserID, request.TransferToUserID); err != nil {
			return err
		}

		// Every competing pending request loses.
		var siblings []models.TransferRequest
		err := tx.Where("product_id = ? AND transfer_status_id = ? AND id != ?",
			request.ProductID, pending.ID, request.ID).
			Find(&siblings).Error
		if err != nil {
			return fmt.Errorf("failed to load competing requests: %w", err)
		}

		for _, sibling := range siblings {
			deniedRequesterIDs = append(deniedRequesterIDs, sibling.TransferToUserID)
		}

		if len(siblings) > 0 {
			err = tx.Model(&models.TransferRequest{}).
				Where("product_id = ? AND transfer_status_id = ? AND id != ?",
					request.ProductID, pending.ID, request.ID).
				Updates(map[string]interface{}{
					"transfer_status_id": denied.ID,
					"updated_by":         gorm.Expr("transfer_to_user_id"),
				}).Error
			if err != nil {
				return fmt.Errorf("failed to deny competing requests: %w", err)
			}
		}

		return s.products.BulkSetStatus(tx, request.ProductID, models.ProductStatusPending, models.ProductStatusDenied)
	})
	if err != nil {
		return nil, err
	}

	request.TransferStatusID = accepted.ID
	request.Status = accepted

	go s.notifyAccepted(request, requester, owner, deniedRequesterIDs)

	return request, nil
}

func (s *TransferService) deny(request *models.TransferRequest, denied *models.TransferStatus, caller *models.User) (*models.TransferRequest, error) {
	pending, err := s.statusByName(s.db, models.TransferStatusPending)
	if err != nil {
		return nil, err
	}

	requester, err := s.loadUser(s.db, request.TransferToUserID)
	if err != nil {
		return nil, err
	}
	owner, err := s.loadUser(s.db, request.TransferFromUserID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TransferRequest{}).
			Where("id = ? AND transfer_status_id = ?", request.ID, pending.ID).
			Updates(map[string]interface{}{
				"transfer_status_id": denied.ID,
				"updated_by":         caller.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to deny transfer request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRequestResolved
		}

		if err := s.products.SetViewerStatus(tx, request.ProductID, requester, models.ProductStatusDenied); err != nil {
			return err
		}

		// The owner's view returns to normal only once no other request
		// is still waiting on them.
		var remaining int64
		err := tx.Model(&models.TransferRequest{}).
			Where("product_id = ? AND transfer_status_id = ?", request.ProductID, pending.ID).
			Count(&remaining).Error
		if err != nil {
			return fmt.Errorf("failed to count pending requests: %w", err)
		}
		if remaining == 0 {
			return s.products.SetViewerStatus(tx, request.ProductID, owner, models.ProductStatusNormal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.TransferStatusID = denied.ID
	request.Status = denied

	go s.notifyDenied(request, requester, owner)

	return request, nil
}

// GetRequest returns one request; non-admin callers must be a party to it.
func (s *TransferService) GetRequest(id uuid.UUID, caller *models.User, role models.RoleKey) (*models.TransferRequest, error) {
	var request models.TransferRequest
	err := s.db.Preload("Product").Preload("Status").First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load transfer request: %w", err)
	}

	if role != models.RoleAdmin && !s.isParty(&request, caller) {
		return nil, ErrNoPermission
	}

	return &request, nil
}

func (s *TransferService) isParty(request *models.TransferRequest, user *models.User) bool {
	ids := []uuid.UUID{user.ID, user.AccountID()}
	for _, id := range ids {
		if request.TransferFromUserID == id || request.TransferToUserID == id {
			return true
		}
	}
	return false
}

// ListRequests returns the caller's requests. Admins see everything;
// other callers see requests they sent or received, optionally narrowed
// by direction, product and status name.
func (s *TransferService) ListRequests(caller *models.User, role models.RoleKey, filter TransferListFilter, params utils.PaginationParams) (utils.PaginationResult, error) {
	query := s.db.Model(&models.TransferRequest{})

	if role != models.RoleAdmin {
		ids := []uuid.UUID{caller.ID, caller.AccountID()}
		switch filter.Direction {
		case "sent":
			query = query.Where("transfer_to_user_id IN ?", ids)
		case "received":
			query = query.Where("transfer_from_user_id IN ?", ids)
		default:
			query = query.Where("transfer_from_user_id IN ? OR transfer_to_user_id IN ?", ids, ids)
		}
	}

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	if filter.Status != "" {
		status, err := s.statusByName(s.db, models.TransferStatusName(filter.Status))
		if err != nil {
			return utils.PaginationResult{}, err
		}
		query = query.Where("transfer_status_id = ?", status.ID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to count transfer requests: %w", err)
	}

	var requests []models.TransferRequest
	err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Preload("Product").Preload("Status").
		Find(&requests).Error
	if err != nil {
		return utils.PaginationResult{}, fmt.Errorf("failed to list transfer requests: %w", err)
	}

	return utils.CreatePaginationResult(requests, total, params), nil
}

// DeleteRequest removes a request outright. Routed admin-only.
func (s *TransferService) DeleteRequest(id uuid.UUID) error {
	res := s.db.Delete(&models.TransferRequest{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete transfer request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListStatuses returns the transfer status reference rows.
func (s *TransferService) ListStatuses() ([]models.TransferStatus, error) {
	var statuses []models.TransferStatus
	if err := s.db.Order("name").Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to list transfer statuses: %w", err)
	}
	return statuses, nil
}

type TransferStatusRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=20"`
	Description string `json:"description"`
}

// CreateStatus adds a reference row. Routed admin-only.
func (s *TransferService) CreateStatus(req *TransferStatusRequest, callerID uuid.UUID) (*models.TransferStatus, error) {
	status := &models.TransferStatus{
		Name:        models.TransferStatusName(req.Name),
		Description: req.Description,
		UpdatedBy:   &callerID,
	}
	if err := s.db.Create(status).Error; err != nil {
		return nil, fmt.Errorf("failed to create transfer status: %w", err)
	}
	return status, nil
}

func (s *TransferService) GetStatus(id uuid.UUID) (*models.TransferStatus, error) {
	var status models.TransferStatus
	if err := s.db.First(&status, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to load transfer status: %w", err)
	}
	return &status, nil
}

// UpdateStatus edits the description of a reference row. The name is
// immutable once created; the workflow resolves statuses by name.
func (s *TransferService) UpdateStatus(id uuid.UUID, description string, callerID uuid.UUID) (*models.TransferStatus, error) {
	status, err := s.GetStatus(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"description": description, "updated_by": callerID}
	if err := s.db.Model(status).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update transfer status: %w", err)
	}
	return status, nil
}

func (s *TransferService) DeleteStatus(id uuid.UUID) error {
	res := s.db.Delete(&models.TransferStatus{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete transfer status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusNotFound
	}
	return nil
}

// productImageURL returns the file path of the product's first attached
// image, or empty when none is attached.
func (s *TransferService) productImageURL(productID uuid.UUID) string {
	var resource models.Resource
	err := s.db.
		Joins("JOIN item_resources ON item_resources.resource_id = resources.id").
		Where("item_resources.item_type = ? AND item_resources.item_id = ?", models.ItemTypeProduct, productID).
		Order("item_resources.created_at").
		First(&resource).Error
	if err != nil {
		return ""
	}
	return resource.FilePath
}

func (s *TransferService) notifyRequestCreated(request *models.TransferRequest, product *models.Product, requester, owner *models.User) {
	if s.notifier == nil {
		return
	}

	imageURL := s.productImageURL(product.ID)

	s.notifier.SendToTopics([]string{UserTopic(requester.ID)}, NotificationPayload{
		Event:       "add_transfer_request",
		Title:       "Transfer request created",
		RequestID:   request.ID.String(),
		ProductID:   product.ID.String(),
		ProductName: product.Name,
		ImageURL:    imageURL,
		Message:     fmt.Sprintf("Your transfer request for %s was created", product.Name),
	})
	s.notifier.SendToTopics([]string{UserTopic(owner.ID)}, NotificationPayload{
		Event:       "receive_transfer_request",
		Title:       "New transfer request",
		RequestID:   request.ID.String(),
		ProductID:   product.ID.String(),
		ProductName: product.Name,
		ImageURL:    imageURL,
		Message:     fmt.Sprintf("%s requested a transfer of %s", requester.Name, product.Name),
	})

	logrus.WithFields(logrus.Fields{
		"request_id": request.ID,
		"product_id": product.ID,
	}).Info("Transfer request notifications sent")
}

func (s *TransferService) notifyAccepted(request *models.TransferRequest, requester, owner *models.User, deniedRequesterIDs []uuid.UUID) {
	if s.notifier == nil {
		return
	}

	productName := ""
	if request.Product != nil {
		productName = request.Product.Name
	}
	imageURL := s.productImageURL(request.ProductID)

	s.notifier.SendToTopics([]string{UserTopic(requester.ID)}, NotificationPayload{
		Event:       "accepted_transfer_request",
		Title:       "Transfer request accepted",
		RequestID:   request.ID.String(),
		ProductID:   request.ProductID.String(),
		ProductName: productName,
		ImageURL:    imageURL,
		Message:     fmt.Sprintf("Your transfer request for %s was accepted", productName),
	})
	s.notifier.SendToTopics([]string{UserTopic(owner.ID)}, NotificationPayload{
		Event:       "accepted_transfer_request",
		Title:       "Transfer accepted",
		RequestID:   request.ID.String(),
		ProductID:   request.ProductID.String(),
		ProductName: productName,
		ImageURL:    imageURL,
		Message:     fmt.Sprintf("You accepted the transfer of %s", productName),
	})

	if len(deniedRequesterIDs) > 0 {
		topics := make([]string, 0, len(deniedRequesterIDs))
		for _, id := range deniedRequesterIDs {
			topics = append(topics, UserTopic(id))
		}
		s.notifier.SendToTopics(topics, NotificationPayload{
			Event:       "denied_transfer_request",
			RequestID:   request.ID.String(),
			ProductID:   request.ProductID.String(),
			ProductName: productName,
			ImageURL:    imageURL,
			Message:     fmt.Sprintf("Your transfer request for %s was denied", productName),
		})
	}
}

func (s *TransferService) notifyDenied(request *models.TransferRequest, requester, owner *models.User) {
	if s.notifier == nil {
		return
	}

	productName := ""
	if request.Product != nil {
		productName = request.Product.Name
	}
	imageURL := s.productImageURL(request.ProductID)

	s.notifier.SendToTopics([]string{UserTopic(requester.ID)}, NotificationPayload{
		Event:       "denied_transfer_request",
		Title:       "Transfer request denied",
		RequestID:   request.ID.String(),
		ProductID:   request.ProductID.String(),
		ProductName: productName,
		ImageURL:    imageURL,
		Message:     fmt.Sprintf("Your transfer request for %s was denied", productName),
	})
	s.notifier.SendToTopics([]string{UserTopic(owner.ID)}, NotificationPayload{
		Event:       "denied_transfer_request",
		Title:       "Transfer denied",
		RequestID:   request.ID.String(),
		ProductID:   request.ProductID.String(),
		ProductName: productName,
		ImageURL:    imageURL,
		Message:     fmt.Sprintf("You denied the transfer of %s", productName),
	})
}
