package models

import (
	"time"

	"github.com/lib/pq"
)

// Visibility controls whether a presence record participates in
// aggregation and matching.
type Visibility string

const (
	VisibilityOpen      Visibility = "open"
	VisibilityFocused   Visibility = "focused"
	VisibilityInvisible Visibility = "invisible"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityOpen, VisibilityFocused, VisibilityInvisible:
		return true
	}
	return false
}

// PresenceRecord is a user's live check-in state at a Lab.
type PresenceRecord struct {
	UserID      string         `db:"user_id" json:"user_id"`
	DisplayName string         `db:"display_name" json:"display_name"`
	Skills      pq.StringArray `db:"skills" json:"skills"`
	LabID       *string        `db:"lab_id" json:"lab_id,omitempty"`
	Visibility  Visibility     `db:"visibility" json:"visibility"`
	CheckedInAt time.Time      `db:"checked_in_at" json:"checked_in_at"`
	LastSeenAt  time.Time      `db:"last_seen_at" json:"last_seen_at"`
}

// AggregatedSkill is a derived view of one skill at a location: how
// many visible people currently exhibit it and who they are. Never
// persisted, recomputed from the presence set on every read.
type AggregatedSkill struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}
