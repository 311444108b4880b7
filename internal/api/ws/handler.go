// Package ws carries the command stream over a WebSocket connection.
//
// Frames are JSON objects; an execute frame routes through the service
// registry and comes back as a result frame with the same ID.
package ws

import (
	"encoding/json"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sandfs/sandfs/internal/logging"
	"github.com/sandfs/sandfs/internal/monitoring"
	"github.com/sandfs/sandfs/internal/service"
	"github.com/sandfs/sandfs/internal/types"
)

// adaptiveThreshold is the payload size above which sonic handles the
// codec work instead of encoding/json.
const adaptiveThreshold = 10 * 1024

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware owns origin policy
	},
}

// Handler manages WebSocket connections
type Handler struct {
	registry *service.Registry
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *service.Registry, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	return &Handler{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleConnection handles WebSocket upgrade and the frame loop
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	reqCtx := c.Request.Context()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg types.WSMessage
		if err := decodeFrame(raw, &msg); err != nil {
			h.sendError(conn, "", "malformed frame")
			continue
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "execute":
			result, err := h.registry.Execute(reqCtx, msg.ToolID, msg.Params, &types.Context{})
			if err != nil {
				h.sendError(conn, msg.ID, err.Error())
				continue
			}
			h.send(conn, map[string]interface{}{
				"type":   "result",
				"id":     msg.ID,
				"result": result,
			})
		case "ping":
			h.send(conn, map[string]interface{}{"type": "pong", "id": msg.ID})
		default:
			h.sendError(conn, msg.ID, "unknown message type")
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, data map[string]interface{}) {
	payload, err := encodeFrame(data)
	if err != nil {
		h.logger.Warn("frame encode failed", zap.Error(err))
		return
	}
	if msgType, ok := data["type"].(string); ok {
		h.metrics.RecordWSMessage("out", msgType)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, id, message string) {
	h.send(conn, map[string]interface{}{
		"type":    "error",
		"id":      id,
		"message": message,
	})
}

// decodeFrame picks the codec by payload size.
func decodeFrame(raw []byte, msg *types.WSMessage) error {
	if len(raw) > adaptiveThreshold {
		return sonic.Unmarshal(raw, msg)
	}
	return json.Unmarshal(raw, msg)
}

// encodeFrame encodes with encoding/json first and switches to sonic
// for oversized payloads.
func encodeFrame(data map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if len(payload) > adaptiveThreshold {
		return sonic.Marshal(data)
	}
	return payload, nil
}
