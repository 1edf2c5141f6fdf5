package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kaylum54/promptpit-sub001/internal/judge"
	"github.com/kaylum54/promptpit-sub001/internal/observability"
)

// JudgeHandler exposes the judging endpoint.
type JudgeHandler struct {
	controller *judge.Controller
	metrics    *observability.Metrics
	logger     *logrus.Logger
}

// NewJudgeHandler creates a judge handler. metrics may be nil.
func NewJudgeHandler(controller *judge.Controller, metrics *observability.Metrics, logger *logrus.Logger) *JudgeHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &JudgeHandler{controller: controller, metrics: metrics, logger: logger}
}

// RegisterRoutes mounts the judge endpoint on the given group.
func (h *JudgeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/judge", h.handleJudge)
}

type judgeRequest struct {
	Prompt    string            `json:"prompt"`
	Responses map[string]string `json:"responses"`
}

// handleJudge runs the judging tool loop over a finished round and streams
// its events. The stream always ends with a complete event.
func (h *JudgeHandler) handleJudge(c *gin.Context) {
	var req judgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if len(req.Responses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "responses must contain at least one entry"})
		return
	}

	emit, ok := sseWriter(c)
	if !ok {
		return
	}

	if h.metrics != nil {
		h.metrics.JudgeRuns.Inc()
	}
	h.controller.Run(c.Request.Context(), req.Prompt, req.Responses, emit)
}
