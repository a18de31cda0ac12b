package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/telemetry"
)

// DebugHandler hosts routes that only exist in non-production
// environments.
type DebugHandler struct {
	audit *telemetry.AuditEmitter
}

// NewDebugHandler builds a DebugHandler.
func NewDebugHandler(audit *telemetry.AuditEmitter) *DebugHandler {
	return &DebugHandler{audit: audit}
}

// AuditTest handles POST /debug/audit-test: emits a synthetic audit
// event so the broker wiring can be verified end to end.
func (h *DebugHandler) AuditTest(c *gin.Context) {
	var req struct {
		Level string `json:"level"`
		Text  string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Level == "" {
		req.Level = "INFO"
	}
	if req.Text == "" {
		req.Text = "audit test event"
	}

	emitAudit(c, h.audit, req.Level, req.Text)
	c.JSON(http.StatusOK, gin.H{"status": "emitted", "request_id": requestIDFromContext(c)})
}
