// internal/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmtrace/agritrace-backend/internal/middleware"
	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CreateTree handles POST /api/v1/trees (admin only)
func (h *CatalogHandler) CreateTree(c *gin.Context) {
	callerID, ok := middleware.MustGetUserID(c)
	if !ok {
		return
	}

	var req services.CreateTreeRequest
	if !bindJSON(c, &req) {
		return
	}

	tree, err := h.catalog.CreateTree(&req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tree)
}

// ListTrees handles GET /api/v1/trees
func (h *CatalogHandler) ListTrees(c *gin.Context) {
	result, err := h.catalog.ListTrees(utils.GetPaginationParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTree handles GET /api/v1/trees/:id
func (h *CatalogHandler) GetTree(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tree, err := h.catalog.GetTree(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tree)
}

// DeleteTree handles DELETE /api/v1/trees/:id (admin only)
func (h *CatalogHandler) DeleteTree(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteTree(id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateFertilizer handles POST /api/v1/fertilizers (admin only)
func (h *CatalogHandler) CreateFertilizer(c *gin.Context) {
	callerID, ok := middleware.MustGetUserID(c)
	if !ok {
		return
	}

	var req services.CreateFertilizerRequest
	if !bindJSON(c, &req) {
		return
	}

	fertilizer, err := h.catalog.CreateFertilizer(&req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fertilizer)
}

// ListFertilizers handles GET /api/v1/fertilizers
func (h *CatalogHandler) ListFertilizers(c *gin.Context) {
	result, err := h.catalog.ListFertilizers(utils.GetPaginationParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetFertilizer handles GET /api/v1/fertilizers/:id
func (h *CatalogHandler) GetFertilizer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fertilizer, err := h.catalog.GetFertilizer(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, fertilizer)
}

// DeleteFertilizer handles DELETE /api/v1/fertilizers/:id (admin only)
func (h *CatalogHandler) DeleteFertilizer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteFertilizer(id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateCategory handles POST /api/v1/categories (admin only)
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	callerID, ok := middleware.MustGetUserID(c)
	if !ok {
		return
	}

	var req services.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(&req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	result, err := h.catalog.ListCategories(utils.GetPaginationParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteCategory handles DELETE /api/v1/categories/:id (admin only)
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
