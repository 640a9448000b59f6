package handler

import (
	"errors"
	"net/http"
	"time"

	"dealintake/internal/model"
	"dealintake/internal/service"

	"github.com/gin-gonic/gin"
)

// IntakeHandler handles intake-related HTTP requests
type IntakeHandler struct {
	intakeService *service.IntakeService
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(intakeService *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
	}
}

// Preview handles POST /api/v1/intake/preview
func (h *IntakeHandler) Preview(c *gin.Context) {
	var req model.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.intakeService.Preview(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, "Preview failed", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Process handles POST /api/v1/intake
func (h *IntakeHandler) Process(c *gin.Context) {
	var req model.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var receivedAt time.Time
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	response, err := h.intakeService.Process(c.Request.Context(), req.Text, receivedAt)
	if err != nil {
		respondError(c, "Intake failed", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// History handles GET /api/v1/intake/history/:id
func (h *IntakeHandler) History(c *gin.Context) {
	entry, err := h.intakeService.HistoryEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "History lookup failed", err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// respondError maps service errors onto status codes
func respondError(c *gin.Context, prefix string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyIntake):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrHistoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": prefix + ": " + err.Error()})
	}
}
