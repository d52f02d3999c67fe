package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/renderprep-backend/internal/clients/redis"
	"github.com/yungbote/renderprep-backend/internal/logger"
	"github.com/yungbote/renderprep-backend/internal/pipeline"
)

// ProcessRequest is the transport envelope for one normalization run.
type ProcessRequest struct {
	Content pipeline.RawContent     `json:"content"`
	Context pipeline.RequestContext `json:"context"`
}

type PipelineHandler struct {
	log   *logger.Logger
	orch  *pipeline.Orchestrator
	cache redis.ResponseCache
}

// NewPipelineHandler wires the orchestrator behind HTTP. The cache may be
// nil, which disables response reuse.
func NewPipelineHandler(log *logger.Logger, orch *pipeline.Orchestrator, cache redis.ResponseCache) *PipelineHandler {
	if log != nil {
		log = log.With("handler", "PipelineHandler")
	}
	return &PipelineHandler{log: log, orch: orch, cache: cache}
}

// POST /api/pipeline/process
func (h *PipelineHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if len(req.Content) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("content record is required"))
		return
	}

	key := redis.CacheKey(req.Content, req.Context)
	if h.cache != nil {
		if cached, ok := h.cache.Get(c.Request.Context(), key); ok {
			if h.log != nil {
				h.log.Debug("cache hit", "key", key)
			}
			RespondOK(c, cached)
			return
		}
	}

	resp := h.orch.Run(c.Request.Context(), req.Content, req.Context)

	if h.cache != nil {
		// Write-behind so the caller never waits on redis.
		go func(resp pipeline.PipelineResponse) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			h.cache.Set(ctx, key, resp)
		}(resp)
	}

	RespondOK(c, resp)
}

// GET /api/pipeline/stats
func (h *PipelineHandler) Stats(c *gin.Context) {
	RespondOK(c, h.orch.Stats())
}
