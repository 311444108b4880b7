// Package http exposes the service registry over gin HTTP endpoints.
//
// Classified operation failures stay inside the result envelope with
// HTTP 200; HTTP error statuses are reserved for malformed request
// envelopes.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sandfs/sandfs/internal/api/middleware"
	"github.com/sandfs/sandfs/internal/logging"
	"github.com/sandfs/sandfs/internal/monitoring"
	"github.com/sandfs/sandfs/internal/service"
	"github.com/sandfs/sandfs/internal/types"
	"github.com/sandfs/sandfs/internal/vfs"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	engine   *vfs.VFS
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	started  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(registry *service.Registry, engine *vfs.VFS, metrics *monitoring.Metrics, logger *logging.Logger) *Handlers {
	return &Handlers{
		registry: registry,
		engine:   engine,
		metrics:  metrics,
		logger:   logger,
		started:  time.Now(),
	}
}

// Root reports service identity
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "sandfs",
		"version": "0.3.0",
	})
}

// Health reports liveness, backend type and free space
func (h *Handlers) Health(c *gin.Context) {
	st := h.engine.Store()
	free, err := st.FreeSpace(c.Request.Context())
	storeHealth := gin.H{"backend": st.Type()}
	if err != nil {
		storeHealth["error"] = err.Error()
	} else {
		storeHealth["free_space"] = free
	}
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"uptime_seconds":   int64(time.Since(h.started).Seconds()),
		"store":            storeHealth,
		"service_registry": h.registry.Stats(),
	})
}

// ListServices lists registered services and their tools
func (h *Handlers) ListServices(c *gin.Context) {
	services := h.registry.List(nil)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    h.registry.Stats(),
	})
}

// ExecuteService routes a command to its provider and returns the
// result envelope
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := middleware.GetRequestID(c)
	appCtx := &types.Context{AppID: req.AppID}
	if requestID != "" {
		appCtx.RequestID = &requestID
	}

	timer := monitoring.NewTimer(h.metrics, "file", req.ToolID)
	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		timer.Stop("error")
		h.logger.Error("execute failed",
			zap.String("tool_id", req.ToolID),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.Success {
		timer.Stop("success")
	} else {
		timer.Stop("failure")
		if result.Error != nil {
			h.metrics.RecordServiceError("file", req.ToolID, vfs.Code(result.Error.Code).String())
		}
		h.logger.Debug("operation failed",
			zap.String("tool_id", req.ToolID),
			zap.String("request_id", requestID),
			zap.Any("error", result.Error),
		)
	}

	c.JSON(http.StatusOK, result)
}
