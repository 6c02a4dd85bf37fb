// internal/handlers/transfer.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/farmtrace/agritrace-backend/internal/middleware"
	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type TransferHandler struct {
	transfers *services.TransferService
	users     *services.UserService
}

func NewTransferHandler(transfers *services.TransferService, users *services.UserService) *TransferHandler {
	return &TransferHandler{transfers: transfers, users: users}
}

// Create handles POST /api/v1/transfer-requests
func (h *TransferHandler) Create(c *gin.Context) {
	caller, _, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req services.CreateTransferRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.transfers.CreateRequest(&req, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Resolve handles PUT /api/v1/transfer-requests/:id. The body names the
// target status; an admin or either party on the request may resolve, so
// a caller who is neither gets 401.
func (h *TransferHandler) Resolve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	var req services.ResolveTransferRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.transfers.ResolveRequest(id, req.Status, caller, role)
	if err != nil {
		if errors.Is(err, services.ErrNoPermission) {
			utils.UnauthorizedResponse(c, "not a party to this transfer request")
			return
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// List handles GET /api/v1/transfer-requests
func (h *TransferHandler) List(c *gin.Context) {
	caller, role, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	filter := services.TransferListFilter{
		Status:    c.Query("status"),
		Direction: c.Query("direction"),
	}
	if productID := c.Query("product_id"); productID != "" {
		id, err := uuid.Parse(productID)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid product_id")
			return
		}
		filter.ProductID = &id
	}

	result, err := h.transfers.ListRequests(caller, role, filter, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/transfer-requests/:id
func (h *TransferHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	request, err := h.transfers.GetRequest(id, caller, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Delete handles DELETE /api/v1/transfer-requests/:id (admin only)
func (h *TransferHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.transfers.DeleteRequest(id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListStatuses handles GET /api/v1/transfer-statuses
func (h *TransferHandler) ListStatuses(c *gin.Context) {
	statuses, err := h.transfers.ListStatuses()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, statuses)
}

// CreateStatus handles POST /api/v1/transfer-statuses (admin only)
func (h *TransferHandler) CreateStatus(c *gin.Context) {
	callerID, ok := middleware.MustGetUserID(c)
	if !ok {
		return
	}

	var req services.TransferStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.transfers.CreateStatus(&req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, status)
}

// GetStatus handles GET /api/v1/transfer-statuses/:id
func (h *TransferHandler) GetStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	status, err := h.transfers.GetStatus(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// UpdateStatus handles PUT /api/v1/transfer-statuses/:id (admin only)
func (h *TransferHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	callerID, userOK := middleware.MustGetUserID(c)
	if !userOK {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.transfers.UpdateStatus(id, req.Description, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// DeleteStatus handles DELETE /api/v1/transfer-statuses/:id (admin only)
func (h *TransferHandler) DeleteStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.transfers.DeleteStatus(id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
