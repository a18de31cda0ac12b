package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"match-service/internal/matching"
	"match-service/internal/models"
	"match-service/internal/repositories"
	"match-service/internal/session"
	"match-service/internal/telemetry"
	"match-service/internal/ws"
)

// PresenceHandler manages check-in state and the per-lab views
// derived from it.
type PresenceHandler struct {
	presenceRepo repositories.PresenceRepository
	sessions     *session.Manager
	hub          *ws.Hub
	audit        *telemetry.AuditEmitter
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(presenceRepo repositories.PresenceRepository, sessions *session.Manager, hub *ws.Hub, audit *telemetry.AuditEmitter) *PresenceHandler {
	return &PresenceHandler{
		presenceRepo: presenceRepo,
		sessions:     sessions,
		hub:          hub,
		audit:        audit,
	}
}

// CheckIn handles POST /presence/checkin.
func (h *PresenceHandler) CheckIn(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		LabID       string   `json:"lab_id" binding:"required"`
		DisplayName string   `json:"display_name"`
		Skills      []string `json:"skills"`
		Visibility  string   `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		emitAudit(c, h.audit, "ERROR", "invalid check-in payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visibility := models.Visibility(req.Visibility)
	if req.Visibility == "" {
		visibility = models.VisibilityOpen
	}
	if !visibility.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid visibility"})
		return
	}

	labID := req.LabID
	rec, err := h.presenceRepo.CheckIn(c.Request.Context(), models.PresenceRecord{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Skills:      pq.StringArray(req.Skills),
		LabID:       &labID,
		Visibility:  visibility,
	})
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "check-in failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check in"})
		return
	}

	h.hub.BroadcastLab(labID, models.LabEvent{Type: "checked_in", Presence: &rec})
	c.JSON(http.StatusOK, rec)
}

// CheckOut handles POST /presence/checkout. Checking out also resets
// any session the user had running.
func (h *PresenceHandler) CheckOut(c *gin.Context) {
	userID := c.GetString("userID")

	rec, err := h.presenceRepo.GetByUser(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrPresenceNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "not checked in"})
		return
	}

	if err := h.presenceRepo.CheckOut(c.Request.Context(), userID); err != nil {
		emitAudit(c, h.audit, "ERROR", "check-out failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check out"})
		return
	}

	h.sessions.Drop(userID)
	if rec.LabID != nil {
		h.hub.BroadcastLab(*rec.LabID, models.LabEvent{Type: "checked_out", UserID: userID})
	}
	c.Status(http.StatusNoContent)
}

// UpdateStatus handles PATCH /presence/status.
func (h *PresenceHandler) UpdateStatus(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Visibility string `json:"visibility" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	visibility := models.Visibility(req.Visibility)
	if !visibility.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid visibility"})
		return
	}

	if err := h.presenceRepo.UpdateVisibility(c.Request.Context(), userID, visibility); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrPresenceNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update status"})
		return
	}

	h.broadcastUpdate(c, userID)
	c.Status(http.StatusNoContent)
}

// UpdateSkills handles PATCH /presence/skills.
func (h *PresenceHandler) UpdateSkills(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Skills []string `json:"skills" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.presenceRepo.UpdateSkills(c.Request.Context(), userID, req.Skills); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrPresenceNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update skills"})
		return
	}

	h.broadcastUpdate(c, userID)
	c.Status(http.StatusNoContent)
}

// ListLabPresence handles GET /labs/:lab_id/presence. Invisible
// records never leave the service.
func (h *PresenceHandler) ListLabPresence(c *gin.Context) {
	labID := c.Param("lab_id")

	records, err := h.presenceRepo.ListByLab(c.Request.Context(), labID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}

	visible := make([]models.PresenceRecord, 0, len(records))
	for _, rec := range records {
		if rec.Visibility != models.VisibilityInvisible {
			visible = append(visible, rec)
		}
	}
	c.JSON(http.StatusOK, gin.H{"presence": visible})
}

// LabSkills handles GET /labs/:lab_id/skills: the aggregated skill
// cloud of everyone visible in the lab.
func (h *PresenceHandler) LabSkills(c *gin.Context) {
	labID := c.Param("lab_id")

	records, err := h.presenceRepo.ListByLab(c.Request.Context(), labID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load presence"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"skills": matching.Aggregate(records)})
}

func (h *PresenceHandler) broadcastUpdate(c *gin.Context, userID string) {
	rec, err := h.presenceRepo.GetByUser(c.Request.Context(), userID)
	if err != nil || rec.LabID == nil {
		return
	}
	h.hub.BroadcastLab(*rec.LabID, models.LabEvent{Type: "presence_updated", Presence: &rec})
}
