// internal/services/transfer_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

func newTransferService(db *gorm.DB) *TransferService {
	return NewTransferService(db, NewProductService(db), nil)
}

func TestCreateRequestProductNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	customer := createTestUser(t, db, models.RoleCustomer, nil)

	_, err := svc.CreateRequest(&CreateTransferRequest{ProductID: uuid.New()}, customer)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateRequestOwnProduct(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	product := createTestProduct(t, db, owner)

	_, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, owner)
	assert.ErrorIs(t, err, ErrOwnProductRequest)
}

func TestCreateRequestOwnProductViaSubAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	sub := createTestUser(t, db, models.RoleOwner, owner)
	product := createTestProduct(t, db, owner)

	// The sub-account acts for the parent account, so requesting the
	// parent's product is still a self-request.
	_, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, sub)
	assert.ErrorIs(t, err, ErrOwnProductRequest)
}

func TestCreateRequestStaleOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	former := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	// The requester thinks the former owner still holds the product.
	_, err := svc.CreateRequest(&CreateTransferRequest{
		ProductID:  product.ID,
		FromUserID: &former.ID,
	}, customer)
	assert.ErrorIs(t, err, ErrStaleOwner)
}

func TestCreateRequestDuplicatePending(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	_, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	_, err = svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestCreateRequestSetsPendingProjections(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	assert.Equal(t, owner.ID, request.TransferFromUserID)
	assert.Equal(t, customer.ID, request.TransferToUserID)
	assert.Equal(t, statusID(t, db, models.TransferStatusPending), request.TransferStatusID)

	assert.Equal(t, models.ProductStatusPending, viewerStatus(t, db, product.ID, customer.ID))
	assert.Equal(t, models.ProductStatusPending, viewerStatus(t, db, product.ID, owner.ID))
}

func TestResolveRequestUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(request.ID, "approved", owner, models.RoleOwner)
	assert.ErrorIs(t, err, ErrStatusNotFound)
}

func TestResolveRequestNonParty(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	stranger := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(request.ID, "accepted", stranger, models.RoleCustomer)
	assert.ErrorIs(t, err, ErrNoPermission)
}

func TestRequesterCanDenyOwnRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	// Either party may resolve; the requester withdraws by denying.
	resolved, err := svc.ResolveRequest(request.ID, "denied", customer, models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, statusID(t, db, models.TransferStatusDenied), resolved.TransferStatusID)

	// The owner's view resets even though the owner never acted.
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, owner.ID))
	assert.Equal(t, models.ProductStatusDenied, viewerStatus(t, db, product.ID, customer.ID))
}

func TestAdminCanAcceptRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	admin := createTestUser(t, db, models.RoleAdmin, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(request.ID, "accepted", admin, models.RoleAdmin)
	require.NoError(t, err)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, customer.ID, *reloaded.UpdatedBy)

	// The projections land on the request's parties, not the admin.
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, customer.ID))
	assert.Equal(t, models.ProductStatusAccepted, viewerStatus(t, db, product.ID, owner.ID))
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, admin.ID))
}

func TestResolveRequestPendingIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	resolved, err := svc.ResolveRequest(request.ID, "pending", owner, models.RoleOwner)
	require.NoError(t, err)

	assert.Equal(t, statusID(t, db, models.TransferStatusPending), resolved.TransferStatusID)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, owner.ID, *reloaded.UpdatedBy)
}

func TestAcceptTransfersOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	resolved, err := svc.ResolveRequest(request.ID, "accepted", owner, models.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, statusID(t, db, models.TransferStatusAccepted), resolved.TransferStatusID)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, customer.ID, *reloaded.UpdatedBy)

	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, customer.ID))
	assert.Equal(t, models.ProductStatusAccepted, viewerStatus(t, db, product.ID, owner.ID))

	var history []models.ProductHistory
	require.NoError(t, db.Where("product_id = ?", product.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, owner.ID, history[0].TransferFromUserID)
	assert.Equal(t, customer.ID, history[0].TransferToUserID)
}

func TestAcceptDeniesCompetingRequests(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	winner := createTestUser(t, db, models.RoleCustomer, nil)
	loser := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	winning, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, winner)
	require.NoError(t, err)
	losing, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, loser)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(winning.ID, "accepted", owner, models.RoleOwner)
	require.NoError(t, err)

	deniedID := statusID(t, db, models.TransferStatusDenied)
	assert.Equal(t, deniedID, requestStatusID(t, db, losing.ID))

	// The cascade stamps the losing request with its own requester.
	var losingReloaded models.TransferRequest
	require.NoError(t, db.First(&losingReloaded, "id = ?", losing.ID).Error)
	require.NotNil(t, losingReloaded.UpdatedBy)
	assert.Equal(t, loser.ID, *losingReloaded.UpdatedBy)

	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, winner.ID))
	assert.Equal(t, models.ProductStatusAccepted, viewerStatus(t, db, product.ID, owner.ID))
	assert.Equal(t, models.ProductStatusDenied, viewerStatus(t, db, product.ID, loser.ID))
}

func TestAcceptAlreadyResolved(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(request.ID, "accepted", owner, models.RoleOwner)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(request.ID, "denied", owner, models.RoleOwner)
	assert.ErrorIs(t, err, ErrRequestResolved)

	_, err = svc.ResolveRequest(request.ID, "accepted", owner, models.RoleOwner)
	assert.ErrorIs(t, err, ErrRequestResolved)
}

func TestDenyResetsOwnerView(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	resolved, err := svc.ResolveRequest(request.ID, "denied", owner, models.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, statusID(t, db, models.TransferStatusDenied), resolved.TransferStatusID)

	// Ownership does not move on a denial.
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, owner.ID, *reloaded.UpdatedBy)

	assert.Equal(t, models.ProductStatusDenied, viewerStatus(t, db, product.ID, customer.ID))
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, owner.ID))
}

func TestDenyKeepsOwnerPendingWithOtherRequests(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	first := createTestUser(t, db, models.RoleCustomer, nil)
	second := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	firstRequest, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, first)
	require.NoError(t, err)
	_, err = svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, second)
	require.NoError(t, err)

	_, err = svc.ResolveRequest(firstRequest.ID, "denied", owner, models.RoleOwner)
	require.NoError(t, err)

	// The second request still waits on the owner.
	assert.Equal(t, models.ProductStatusPending, viewerStatus(t, db, product.ID, owner.ID))
	assert.Equal(t, models.ProductStatusDenied, viewerStatus(t, db, product.ID, first.ID))
	assert.Equal(t, models.ProductStatusPending, viewerStatus(t, db, product.ID, second.ID))
}

func TestAcceptSubAccountRequester(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	parent := createTestUser(t, db, models.RoleCustomer, nil)
	sub := createTestUser(t, db, models.RoleCustomer, parent)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, sub)
	require.NoError(t, err)

	// Both the sub-account and its parent see the request as pending.
	assert.Equal(t, models.ProductStatusPending, viewerStatus(t, db, product.ID, sub.ID))
	assert.Equal(t, models.ProductStatusPending, viewerStatus(t, db, product.ID, parent.ID))

	_, err = svc.ResolveRequest(request.ID, "accepted", owner, models.RoleOwner)
	require.NoError(t, err)

	// Ownership lands on the parent account.
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, parent.ID, *reloaded.UpdatedBy)

	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, sub.ID))
	assert.Equal(t, models.ProductStatusNormal, viewerStatus(t, db, product.ID, parent.ID))
}

func TestListRequestsScopedToParty(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	bystander := createTestUser(t, db, models.RoleCustomer, nil)
	product := createTestProduct(t, db, owner)

	_, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	params := utils.PaginationParams{Page: 1, Limit: 10}

	forCustomer, err := svc.ListRequests(customer, models.RoleCustomer, TransferListFilter{}, params)
	require.NoError(t, err)
	assert.Len(t, forCustomer.Data.([]models.TransferRequest), 1)

	forOwner, err := svc.ListRequests(owner, models.RoleOwner, TransferListFilter{}, params)
	require.NoError(t, err)
	assert.Len(t, forOwner.Data.([]models.TransferRequest), 1)

	forBystander, err := svc.ListRequests(bystander, models.RoleCustomer, TransferListFilter{}, params)
	require.NoError(t, err)
	assert.Len(t, forBystander.Data.([]models.TransferRequest), 0)
}

func TestGetRequestRequiresParty(t *testing.T) {
	db := setupTestDB(t)
	svc := newTransferService(db)
	owner := createTestUser(t, db, models.RoleOwner, nil)
	customer := createTestUser(t, db, models.RoleCustomer, nil)
	stranger := createTestUser(t, db, models.RoleCustomer, nil)
	admin := createTestUser(t, db, models.RoleAdmin, nil)
	product := createTestProduct(t, db, owner)

	request, err := svc.CreateRequest(&CreateTransferRequest{ProductID: product.ID}, customer)
	require.NoError(t, err)

	_, err = svc.GetRequest(request.ID, stranger, models.RoleCustomer)
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = svc.GetRequest(request.ID, customer, models.RoleCustomer)
	assert.NoError(t, err)

	_, err = svc.GetRequest(request.ID, admin, models.RoleAdmin)
	assert.NoError(t, err)
}
