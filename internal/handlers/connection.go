package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"match-service/internal/repositories"
	"match-service/internal/telemetry"
)

// ConnectionHandler serves the saved-connections list.
type ConnectionHandler struct {
	connRepo repositories.ConnectionRepository
	audit    *telemetry.AuditEmitter
}

// NewConnectionHandler builds a ConnectionHandler.
func NewConnectionHandler(connRepo repositories.ConnectionRepository, audit *telemetry.AuditEmitter) *ConnectionHandler {
	return &ConnectionHandler{connRepo: connRepo, audit: audit}
}

// List handles GET /connections.
func (h *ConnectionHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	conns, err := h.connRepo.ListConnections(c.Request.Context(), userID)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "connection list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load connections"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// UpdateNote handles PATCH /connections/:connection_id/note. Only the
// owner can edit; a miss on either id or owner reads as not found.
func (h *ConnectionHandler) UpdateNote(c *gin.Context) {
	userID := c.GetString("userID")

	connectionID, err := strconv.Atoi(c.Param("connection_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connection id"})
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.connRepo.UpdateConnectionNote(c.Request.Context(), connectionID, userID, req.Note); err != nil {
		if errors.Is(err, repositories.ErrConnectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "connection note update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update note"})
		return
	}
	c.Status(http.StatusNoContent)
}
