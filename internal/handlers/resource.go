// internal/handlers/resource.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmtrace/agritrace-backend/internal/middleware"
	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type ResourceHandler struct {
	resources *services.ResourceService
}

func NewResourceHandler(resources *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// Upload handles POST /api/v1/resources. Accepts one or more files in the
// multipart field "files" and returns a resource row per file.
func (h *ResourceHandler) Upload(c *gin.Context) {
	callerID, ok := middleware.MustGetUserID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "multipart form required")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "at least one file is required")
		return
	}

	resources := make([]*models.Resource, 0, len(files))
	for _, fileHeader := range files {
		resource, err := h.resources.Upload(fileHeader, callerID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		resources = append(resources, resource)
	}

	c.JSON(http.StatusCreated, resources)
}

// Get handles GET /api/v1/resources/:id
func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resource, err := h.resources.GetResource(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resource)
}

// Attach handles POST /api/v1/item-resources
func (h *ResourceHandler) Attach(c *gin.Context) {
	callerID, ok := middleware.MustGetUserID(c)
	if !ok {
		return
	}

	var req services.AttachResourceRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.resources.Attach(&req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListForItem handles GET /api/v1/item-resources/:type/:id
func (h *ResourceHandler) ListForItem(c *gin.Context) {
	itemType := models.ItemType(c.Param("type"))
	switch itemType {
	case models.ItemTypeFarm, models.ItemTypeTree, models.ItemTypeProduct, models.ItemTypeFertilizer:
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid item type")
		return
	}

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.resources.ListForItem(itemType, itemID, utils.GetPaginationParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Detach handles DELETE /api/v1/item-resources/:type/:id/:resource_id
func (h *ResourceHandler) Detach(c *gin.Context) {
	itemType := models.ItemType(c.Param("type"))
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resourceID, ok := parseIDParam(c, "resource_id")
	if !ok {
		return
	}

	if err := h.resources.Detach(itemType, itemID, resourceID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/resources/:id (admin only)
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.resources.DeleteResource(id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
