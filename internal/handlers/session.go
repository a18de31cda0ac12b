package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/matching"
	"match-service/internal/models"
	"match-service/internal/repositories"
	"match-service/internal/session"
	"match-service/internal/telemetry"
)

// SessionHandler exposes the match scoring endpoint and the session
// lifecycle transitions.
type SessionHandler struct {
	presenceRepo repositories.PresenceRepository
	scorer       *matching.Scorer
	sessions     *session.Manager
	audit        *telemetry.AuditEmitter
}

// NewSessionHandler builds a SessionHandler.
func NewSessionHandler(presenceRepo repositories.PresenceRepository, scorer *matching.Scorer, sessions *session.Manager, audit *telemetry.AuditEmitter) *SessionHandler {
	return &SessionHandler{
		presenceRepo: presenceRepo,
		scorer:       scorer,
		sessions:     sessions,
		audit:        audit,
	}
}

// ScorePair handles POST /matches/score: a one-off compatibility
// readout between the caller and another visible user, without
// touching the caller's session.
func (h *SessionHandler) ScorePair(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		PartnerID string `json:"partner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	self, partner, status, msg := h.loadPair(c, userID, req.PartnerID)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	result := h.scorer.Score(
		matching.Profile{Skills: self.Skills, LabID: labOf(self)},
		matching.Profile{Skills: partner.Skills, LabID: labOf(partner)},
	)
	c.JSON(http.StatusOK, result)
}

// Invite handles POST /sessions/invite.
func (h *SessionHandler) Invite(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		PartnerID string `json:"partner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PartnerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot invite yourself"})
		return
	}

	self, partner, status, msg := h.loadPair(c, userID, req.PartnerID)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	machine := h.sessions.Machine(userID)
	err := machine.Invite(
		matching.Profile{Skills: self.Skills, LabID: labOf(self)},
		session.Partner{
			UserID:      partner.UserID,
			DisplayName: partner.DisplayName,
			Skills:      partner.Skills,
			LabID:       labOf(partner),
			Visibility:  partner.Visibility,
		},
	)
	if err != nil {
		if errors.Is(err, session.ErrPartnerUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": "partner is not open to invites"})
			return
		}
		emitAudit(c, h.audit, "ERROR", "invite failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
		return
	}

	c.JSON(http.StatusOK, machine.Snapshot())
}

// Reveal handles POST /sessions/reveal: score the pair now instead of
// waiting for the acceptance timer.
func (h *SessionHandler) Reveal(c *gin.Context) {
	machine := h.sessions.Machine(c.GetString("userID"))
	machine.Reveal()
	c.JSON(http.StatusOK, machine.Snapshot())
}

// CloseReveal handles POST /sessions/close-reveal.
func (h *SessionHandler) CloseReveal(c *gin.Context) {
	machine := h.sessions.Machine(c.GetString("userID"))
	machine.CloseReveal()
	c.JSON(http.StatusOK, machine.Snapshot())
}

// End handles POST /sessions/end.
func (h *SessionHandler) End(c *gin.Context) {
	var req struct {
		SaveConnection bool   `json:"save_connection"`
		Note           string `json:"note"`
		ShareContact   bool   `json:"share_contact"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine := h.sessions.Machine(c.GetString("userID"))
	machine.EndMeeting(req.SaveConnection, req.Note, req.ShareContact)
	c.JSON(http.StatusOK, machine.Snapshot())
}

// Reset handles POST /sessions/reset.
func (h *SessionHandler) Reset(c *gin.Context) {
	machine := h.sessions.Machine(c.GetString("userID"))
	machine.Reset()
	c.JSON(http.StatusOK, machine.Snapshot())
}

// Current handles GET /sessions/current.
func (h *SessionHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Machine(c.GetString("userID")).Snapshot())
}

// loadPair fetches both presence records and applies the visibility
// rules shared by scoring and inviting.
func (h *SessionHandler) loadPair(c *gin.Context, userID, partnerID string) (models.PresenceRecord, models.PresenceRecord, int, string) {
	self, err := h.presenceRepo.GetByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPresenceNotFound) {
			return self, models.PresenceRecord{}, http.StatusNotFound, "you are not checked in"
		}
		emitAudit(c, h.audit, "ERROR", "presence lookup failed")
		return self, models.PresenceRecord{}, http.StatusInternalServerError, "failed to load presence"
	}

	partner, err := h.presenceRepo.GetByUser(c.Request.Context(), partnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPresenceNotFound) {
			return self, partner, http.StatusNotFound, "partner is not checked in"
		}
		emitAudit(c, h.audit, "ERROR", "presence lookup failed")
		return self, partner, http.StatusInternalServerError, "failed to load presence"
	}
	if partner.Visibility == models.VisibilityInvisible {
		// Invisible users do not exist as far as other clients know.
		return self, partner, http.StatusNotFound, "partner is not checked in"
	}

	return self, partner, http.StatusOK, ""
}

func labOf(rec models.PresenceRecord) string {
	if rec.LabID == nil {
		return ""
	}
	return *rec.LabID
}
