package ws

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"match-service/internal/clients"
	"match-service/internal/observability"
)

// LabWebSocketHandler handles lab event-stream connections.
type LabWebSocketHandler struct {
	hub       *Hub
	validator clients.TokenValidator
}

// NewLabWebSocketHandler constructs a LabWebSocketHandler.
func NewLabWebSocketHandler(hub *Hub, validator clients.TokenValidator) *LabWebSocketHandler {
	return &LabWebSocketHandler{hub: hub, validator: validator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the lab
// room and under its user id.
func (h *LabWebSocketHandler) Handle(c *gin.Context) {
	labID := c.Param("lab_id")
	if labID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lab id"})
		return
	}

	ctx, span := otel.Tracer("match-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(labID, conn, info)

	observability.IncWSActive("lab")
	observability.IncWSEvent("lab", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.labs", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsPayload(labID, "ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	// Keep connection alive and clean up on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(labID, conn)
			observability.DecWSActive("lab")
			observability.IncWSEvent("lab", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.labs", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsPayload(labID, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("lab", "ws_error")
					_ = observability.PublishEvent(ctx, "ws_events.labs", observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsPayload(labID, "ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
					}, observability.BuildHeaders(requestID, traceID))
				}
				return
			}
		}
	}()
}

func (h *LabWebSocketHandler) validateToken(ctx context.Context, header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("missing token")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", fmt.Errorf("malformed authorization header")
	}
	return h.validator.ValidateToken(ctx, token)
}

func wsPayload(labID, event string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "lab",
			"resource_id": labID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
