package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"match-service/internal/models"
	"match-service/internal/observability"
)

// Hub maintains active websocket connections, grouped by Lab room and
// by user. Lab rooms carry presence events; per-user registration
// carries session events, so the same connection serves both.
type Hub struct {
	labRooms    map[string]map[*websocket.Conn]bool
	labConnInfo map[string]map[*websocket.Conn]ConnInfo
	userConns   map[string]map[*websocket.Conn]bool
	mu          sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		labRooms:    make(map[string]map[*websocket.Conn]bool),
		labConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		userConns:   make(map[string]map[*websocket.Conn]bool),
	}
}

// AddClient registers a websocket connection to a lab room and under
// its user id.
func (h *Hub) AddClient(labID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.labRooms[labID]; !ok {
		h.labRooms[labID] = make(map[*websocket.Conn]bool)
	}
	h.labRooms[labID][conn] = true
	if _, ok := h.labConnInfo[labID]; !ok {
		h.labConnInfo[labID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.labConnInfo[labID][conn] = info
	if info.UserID != "" {
		if _, ok := h.userConns[info.UserID]; !ok {
			h.userConns[info.UserID] = make(map[*websocket.Conn]bool)
		}
		h.userConns[info.UserID][conn] = true
	}
}

// RemoveClient removes a websocket connection everywhere.
func (h *Hub) RemoveClient(labID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var userID string
	if infos, ok := h.labConnInfo[labID]; ok {
		userID = infos[conn].UserID
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.labConnInfo, labID)
		}
	}
	if conns, ok := h.labRooms[labID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.labRooms, labID)
		}
	}
	if userID != "" {
		if conns, ok := h.userConns[userID]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.userConns, userID)
			}
		}
	}
}

// BroadcastLab sends a presence event to everyone watching a lab.
func (h *Hub) BroadcastLab(labID string, event models.LabEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.labRooms[labID]))
	for conn := range h.labRooms[labID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(labID, conn, err)
			h.RemoveClient(labID, conn)
		}
	}
}

// NotifySession pushes a session event to all of a user's connections.
func (h *Hub) NotifySession(userID string, event models.SessionEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.userConns[userID]))
	for conn := range h.userConns[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
		}
	}
	observability.IncWSEvent("session", event.Type)
}

func (h *Hub) publishWSError(labID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(labID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "lab",
			"resource_id": labID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.labs", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("lab", "ws_error")
}

func (h *Hub) getConnInfo(labID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.labConnInfo[labID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
