package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"dealintake/internal/model"
	"dealintake/internal/service"
	"dealintake/internal/utils"

	"github.com/gin-gonic/gin"
)

// maxPatternBody caps PUT /patterns bodies
const maxPatternBody = 1 << 20

// PatternsHandler exposes the detector lists
type PatternsHandler struct {
	intakeService *service.IntakeService
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(intakeService *service.IntakeService) *PatternsHandler {
	return &PatternsHandler{
		intakeService: intakeService,
	}
}

// Get handles GET /api/v1/patterns
func (h *PatternsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.intakeService.Patterns())
}

// Update handles PUT /api/v1/patterns. The body is hand-edited keyword rules,
// so it is decoded leniently: code fences, trailing commas and unquoted keys
// are accepted. An empty object restores the defaults.
func (h *PatternsHandler) Update(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPatternBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var override model.PatternOverride
	if strings.TrimSpace(string(body)) != "" {
		if err := utils.ParseLenientJSON(string(body), &override); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	patterns, err := h.intakeService.UpdatePatterns(&override)
	if err != nil {
		if errors.Is(err, service.ErrPatternsRejected) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    err.Error(),
				"patterns": patterns,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Pattern update failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, patterns)
}
