package handler

import (
	"net/http"

	"dealintake/internal/model"
	"dealintake/internal/service"

	"github.com/gin-gonic/gin"
)

// InventoryHandler handles inventory matching requests
type InventoryHandler struct {
	intakeService *service.IntakeService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(intakeService *service.IntakeService) *InventoryHandler {
	return &InventoryHandler{
		intakeService: intakeService,
	}
}

// Match handles POST /api/v1/inventory/match
func (h *InventoryHandler) Match(c *gin.Context) {
	var req model.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.intakeService.MatchInventory(c.Request.Context(), req.Text, req.Owner)
	if err != nil {
		respondError(c, "Match failed", err)
		return
	}

	c.JSON(http.StatusOK, response)
}
