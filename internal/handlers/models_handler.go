package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaylum54/promptpit-sub001/internal/models"
)

// ModelsHandler exposes the participant roster.
type ModelsHandler struct {
	registry *models.Registry
}

// NewModelsHandler creates a models handler.
func NewModelsHandler(registry *models.Registry) *ModelsHandler {
	return &ModelsHandler{registry: registry}
}

// RegisterRoutes mounts the roster endpoint on the given group.
func (h *ModelsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/models", h.handleModels)
}

func (h *ModelsHandler) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.registry.Descriptors()})
}
