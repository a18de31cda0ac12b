package models

import (
	"time"

	"github.com/lib/pq"
)

// Connection is the durable record of a completed introduction.
type Connection struct {
	ID            int            `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	PartnerID     string         `db:"partner_id" json:"partner_id"`
	LabID         *string        `db:"lab_id" json:"lab_id,omitempty"`
	SharedSkills  pq.StringArray `db:"shared_skills" json:"shared_skills"`
	Note          string         `db:"note" json:"note"`
	ContactShared bool           `db:"contact_shared" json:"contact_shared"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
