package models

// LabEvent is broadcasted through websockets to everyone watching a Lab.
type LabEvent struct {
	Type     string          `json:"type"`
	Presence *PresenceRecord `json:"presence,omitempty"`
	UserID   string          `json:"user_id,omitempty"`
}

// SessionEvent is pushed to a single user about their own session.
type SessionEvent struct {
	Type          string               `json:"type"`
	State         string               `json:"state"`
	PartnerID     string               `json:"partner_id,omitempty"`
	Compatibility *CompatibilityResult `json:"compatibility,omitempty"`
	Notice        string               `json:"notice,omitempty"`
}
