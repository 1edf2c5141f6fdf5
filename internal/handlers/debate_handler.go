package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kaylum54/promptpit-sub001/internal/debate"
	"github.com/kaylum54/promptpit-sub001/internal/middleware"
	"github.com/kaylum54/promptpit-sub001/internal/usage"
)

// DebateHandler exposes the debate round endpoint.
type DebateHandler struct {
	controller *debate.Controller
	logger     *logrus.Logger
}

// NewDebateHandler creates a debate handler.
func NewDebateHandler(controller *debate.Controller, logger *logrus.Logger) *DebateHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &DebateHandler{controller: controller, logger: logger}
}

// RegisterRoutes mounts the debate endpoint on the given group.
func (h *DebateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/debate", h.handleDebate)
}

// handleDebate validates and authorizes the request, then streams the round
// as server-sent events. Validation and limit failures are plain JSON; once
// streaming starts all failures travel inside the stream.
func (h *DebateHandler) handleDebate(c *gin.Context) {
	var req debate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.controller.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	if _, err := h.controller.Authorize(c.Request.Context(), userID); err != nil {
		var limitErr *usage.LimitError
		if errors.As(err, &limitErr) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":        "Monthly debate limit reached",
				"code":         "LIMIT_REACHED",
				"debatesUsed":  limitErr.Used,
				"debatesLimit": limitErr.Limit,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
		return
	}

	emit, ok := sseWriter(c)
	if !ok {
		return
	}

	if err := h.controller.Run(c.Request.Context(), userID, &req, func(ev debate.Event) bool {
		return emit(ev)
	}); err != nil {
		// Headers are already sent; report inside the stream.
		emit(debate.Event{Type: debate.EventError, Error: err.Error()})
	}
}
