// internal/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/farmtrace/agritrace-backend/internal/models"
	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type ProductHandler struct {
	products *services.ProductService
	users    *services.UserService
}

func NewProductHandler(products *services.ProductService, users *services.UserService) *ProductHandler {
	return &ProductHandler{products: products, users: users}
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	caller, _, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.CreateProduct(&req, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	caller, role, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	filter := services.ProductListFilter{
		Code:   c.Query("code"),
		Status: models.ProductStatus(c.Query("status")),
	}
	if farmID := c.Query("farm_id"); farmID != "" {
		id, err := uuid.Parse(farmID)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid farm_id")
			return
		}
		filter.FarmID = &id
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = &id
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		v, err := strconv.ParseFloat(minPrice, 64)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid min_price")
			return
		}
		filter.MinPrice = &v
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		v, err := strconv.ParseFloat(maxPrice, 64)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid max_price")
			return
		}
		filter.MaxPrice = &v
	}

	result, err := h.products.ListProducts(caller, role, filter, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, _, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	detail, err := h.products.GetProductDetail(id, caller.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetByCode handles GET /api/v1/trace/:code, the public traceability
// lookup. No authentication required.
func (h *ProductHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")

	product, err := h.products.GetProductByCode(code)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// Update handles PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.UpdateProduct(id, &req, caller, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// Delete handles DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	if err := h.products.DeleteProduct(id, caller, role); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// History handles GET /api/v1/products/:id/history
func (h *ProductHandler) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	result, err := h.products.ListHistory(id, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
