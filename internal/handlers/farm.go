// internal/handlers/farm.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farmtrace/agritrace-backend/internal/services"
	"github.com/farmtrace/agritrace-backend/internal/utils"
)

type FarmHandler struct {
	farms *services.FarmService
	users *services.UserService
}

func NewFarmHandler(farms *services.FarmService, users *services.UserService) *FarmHandler {
	return &FarmHandler{farms: farms, users: users}
}

// Create handles POST /api/v1/farms
func (h *FarmHandler) Create(c *gin.Context) {
	caller, _, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req services.CreateFarmRequest
	if !bindJSON(c, &req) {
		return
	}

	farm, err := h.farms.CreateFarm(&req, caller)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, farm)
}

// List handles GET /api/v1/farms
func (h *FarmHandler) List(c *gin.Context) {
	caller, role, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	result, err := h.farms.ListFarms(caller, role, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/farms/:id
func (h *FarmHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	farm, err := h.farms.GetFarm(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, farm)
}

// Update handles PUT /api/v1/farms/:id
func (h *FarmHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	var req services.UpdateFarmRequest
	if !bindJSON(c, &req) {
		return
	}

	farm, err := h.farms.UpdateFarm(id, &req, caller, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, farm)
}

// Delete handles DELETE /api/v1/farms/:id
func (h *FarmHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	if err := h.farms.DeleteFarm(id, caller, role); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddTree handles POST /api/v1/farms/:id/trees
func (h *FarmHandler) AddTree(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	var req services.FarmLinkRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.farms.AddTree(id, req.ItemID, caller, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListTrees handles GET /api/v1/farms/:id/trees
func (h *FarmHandler) ListTrees(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	trees, err := h.farms.ListTrees(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trees)
}

// AddFertilizer handles POST /api/v1/farms/:id/fertilizers
func (h *FarmHandler) AddFertilizer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	caller, role, userOK := currentUser(c, h.users)
	if !userOK {
		return
	}

	var req services.FarmLinkRequest
	if !bindJSON(c, &req) {
		return
	}

	link, err := h.farms.AddFertilizer(id, req.ItemID, caller, role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListFertilizers handles GET /api/v1/farms/:id/fertilizers
func (h *FarmHandler) ListFertilizers(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fertilizers, err := h.farms.ListFertilizers(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, fertilizers)
}
