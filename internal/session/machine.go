package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"match-service/internal/enrich"
	"match-service/internal/matching"
	"match-service/internal/models"
	"match-service/internal/observability"
)

// State is one step of the introduction lifecycle.
type State string

const (
	StateIdle          State = "idle"
	StateInvited       State = "invited"
	StateMatchRevealed State = "match_revealed"
	StateChatOpen      State = "chat_open"
	StateCompleted     State = "completed"
)

// ErrPartnerUnavailable is returned when the invited partner is not
// open to introductions.
var ErrPartnerUnavailable = errors.New("partner is not open to invites")

// Partner is a snapshot of the other party's presence at invite time.
// The machine owns this copy; it never holds the live record.
type Partner struct {
	UserID      string
	DisplayName string
	Skills      []string
	LabID       string
	Visibility  models.Visibility
}

// ConnectionStore is the slice of persistence the machine needs.
type ConnectionStore interface {
	CreateConnection(ctx context.Context, conn models.Connection) (models.Connection, error)
}

// Notifier pushes session events to the owning user.
type Notifier interface {
	NotifySession(userID string, event models.SessionEvent)
}

// Config tunes the machine's timers and the enrichment tier.
type Config struct {
	// RevealDelay simulates partner acceptance: an invite reveals the
	// match automatically after this long. There is no real two-party
	// negotiation; the epoch guard below is where a real accept
	// signal would plug in.
	RevealDelay time.Duration
	// InviteFlagTTL clears the cosmetic "just invited" flag. The
	// state itself never auto-reverts.
	InviteFlagTTL time.Duration
	// EnrichmentEnabled is the premium capability flag gating the
	// remote text-generation tier.
	EnrichmentEnabled bool
	Language          string
}

// Machine drives one user's session lifecycle:
// Idle -> Invited -> MatchRevealed -> ChatOpen -> Completed -> Idle.
// All transitions are guarded no-ops when their preconditions fail,
// so UI races cannot wedge it.
type Machine struct {
	mu sync.Mutex

	userID   string
	state    State
	self     matching.Profile
	partner  *Partner
	result   *models.CompatibilityResult
	enriched bool

	invitedAt   time.Time
	justInvited bool

	// epoch invalidates timers and in-flight enrichment calls that
	// belong to an earlier invite.
	epoch       uint64
	revealTimer *time.Timer
	flagTimer   *time.Timer

	scorer    *matching.Scorer
	generator enrich.Generator
	store     ConnectionStore
	notifier  Notifier
	cfg       Config
}

// NewMachine builds an Idle machine for one user.
func NewMachine(userID string, scorer *matching.Scorer, generator enrich.Generator, store ConnectionStore, notifier Notifier, cfg Config) *Machine {
	return &Machine{
		userID:    userID,
		state:     StateIdle,
		scorer:    scorer,
		generator: generator,
		store:     store,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// Snapshot is a read-only view of the machine for handlers.
type Snapshot struct {
	State         State                       `json:"state"`
	PartnerID     string                      `json:"partner_id,omitempty"`
	PartnerName   string                      `json:"partner_name,omitempty"`
	JustInvited   bool                        `json:"just_invited"`
	InvitedAt     *time.Time                  `json:"invited_at,omitempty"`
	Compatibility *models.CompatibilityResult `json:"compatibility,omitempty"`
	Enriched      bool                        `json:"enriched"`
}

// Snapshot returns the current state without exposing internals.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{State: m.state, JustInvited: m.justInvited, Enriched: m.enriched}
	if m.partner != nil {
		snap.PartnerID = m.partner.UserID
		snap.PartnerName = m.partner.DisplayName
	}
	if !m.invitedAt.IsZero() {
		at := m.invitedAt
		snap.InvitedAt = &at
	}
	if m.result != nil {
		result := *m.result
		snap.Compatibility = &result
	}
	return snap
}

// Invite starts a session with the given partner. A non-Idle machine
// is force-reset first, so there is never more than one live partner.
// Reveal is scheduled automatically after the configured delay.
func (m *Machine) Invite(self matching.Profile, partner Partner) error {
	if partner.Visibility != models.VisibilityOpen {
		return ErrPartnerUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		m.resetLocked()
	}

	m.epoch++
	epoch := m.epoch
	m.state = StateInvited
	m.self = self
	m.partner = &partner
	m.result = nil
	m.enriched = false
	m.invitedAt = time.Now()
	m.justInvited = true
	observability.IncSessionTransition(string(StateInvited))

	m.notifyLocked(models.SessionEvent{Type: "invited", State: string(m.state), PartnerID: partner.UserID})

	if m.cfg.RevealDelay > 0 {
		m.revealTimer = time.AfterFunc(m.cfg.RevealDelay, func() {
			m.revealEpoch(epoch)
		})
	}
	if m.cfg.InviteFlagTTL > 0 {
		m.flagTimer = time.AfterFunc(m.cfg.InviteFlagTTL, func() {
			m.clearInviteFlag(epoch)
		})
	}
	return nil
}

// Reveal scores the pair and moves Invited -> MatchRevealed. Clients
// may call it directly instead of waiting for the acceptance timer.
func (m *Machine) Reveal() {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()
	m.revealEpoch(epoch)
}

func (m *Machine) revealEpoch(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch || m.state != StateInvited || m.partner == nil {
		m.mu.Unlock()
		return
	}

	partner := *m.partner
	result := m.scorer.Score(m.self, matching.Profile{Skills: partner.Skills, LabID: partner.LabID})
	m.result = &result
	m.state = StateMatchRevealed
	observability.IncSessionTransition(string(StateMatchRevealed))
	m.notifyLocked(models.SessionEvent{
		Type:          "match_revealed",
		State:         string(m.state),
		PartnerID:     partner.UserID,
		Compatibility: &result,
	})
	userSkills := m.self.Skills
	m.mu.Unlock()

	if m.cfg.EnrichmentEnabled && m.generator != nil {
		go m.enrichAsync(epoch, partner, userSkills)
	}
}

// enrichAsync fetches remote prompts and applies them only if the
// session is still about the same partner when the call returns.
func (m *Machine) enrichAsync(epoch uint64, partner Partner, userSkills []string) {
	result, err := m.generator.Enrich(context.Background(), enrich.Request{
		UserSkills:    userSkills,
		PartnerSkills: partner.Skills,
		PartnerName:   partner.DisplayName,
		Language:      m.cfg.Language,
	})
	if err != nil {
		log.Printf("enrichment skipped, keeping local prompts: %v", err)
		observability.IncEnrichment("failed")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.partner == nil || m.partner.UserID != partner.UserID || m.result == nil {
		observability.IncEnrichment("discarded")
		return
	}
	if m.state != StateMatchRevealed && m.state != StateChatOpen {
		observability.IncEnrichment("discarded")
		return
	}

	applied := enrich.Apply(*m.result, result)
	m.result = &applied
	m.enriched = true
	observability.IncEnrichment("applied")
	m.notifyLocked(models.SessionEvent{
		Type:          "prompts_enriched",
		State:         string(m.state),
		PartnerID:     partner.UserID,
		Compatibility: &applied,
	})
}

// CloseReveal dismisses the reveal overlay and opens the chat. A
// no-op without a partner or outside MatchRevealed.
func (m *Machine) CloseReveal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateMatchRevealed || m.partner == nil {
		return
	}
	m.state = StateChatOpen
	observability.IncSessionTransition(string(StateChatOpen))
	m.notifyLocked(models.SessionEvent{Type: "chat_open", State: string(m.state), PartnerID: m.partner.UserID})
}

// EndMeeting completes the chat. When save is set, a Connection is
// written in the background; a failed write surfaces as a notice and
// never keeps the machine out of Idle.
func (m *Machine) EndMeeting(save bool, note string, shareContact bool) {
	m.mu.Lock()
	if m.state != StateChatOpen || m.partner == nil {
		m.mu.Unlock()
		return
	}

	partner := *m.partner
	m.state = StateCompleted
	observability.IncSessionTransition(string(StateCompleted))
	m.notifyLocked(models.SessionEvent{Type: "completed", State: string(m.state), PartnerID: partner.UserID})

	var conn *models.Connection
	if save {
		c := models.Connection{
			UserID:        m.userID,
			PartnerID:     partner.UserID,
			Note:          note,
			ContactShared: shareContact,
		}
		if partner.LabID != "" {
			labID := partner.LabID
			c.LabID = &labID
		}
		if m.result != nil {
			c.SharedSkills = append(c.SharedSkills, m.result.SharedSkills...)
		}
		conn = &c
	}

	m.resetLocked()
	m.mu.Unlock()

	if conn == nil {
		return
	}
	// Fire and forget: the write must not hold up the transition, and
	// the request context may already be gone by the time it runs.
	go func() {
		if _, err := m.store.CreateConnection(context.Background(), *conn); err != nil {
			log.Printf("connection save failed user=%s partner=%s: %v", m.userID, conn.PartnerID, err)
			observability.IncConnectionSave("failed")
			if m.notifier != nil {
				m.notifier.NotifySession(m.userID, models.SessionEvent{
					Type:   "notice",
					State:  string(StateIdle),
					Notice: "We could not save this connection. You can add it again later.",
				})
			}
			return
		}
		observability.IncConnectionSave("ok")
	}()
}

// Reset forces the machine back to Idle from any state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle && m.partner == nil {
		return
	}
	m.resetLocked()
	m.notifyLocked(models.SessionEvent{Type: "reset", State: string(StateIdle)})
}

// resetLocked clears partner bookkeeping. Callers hold m.mu.
func (m *Machine) resetLocked() {
	m.epoch++
	m.state = StateIdle
	m.partner = nil
	m.result = nil
	m.enriched = false
	m.justInvited = false
	m.invitedAt = time.Time{}
	if m.revealTimer != nil {
		m.revealTimer.Stop()
		m.revealTimer = nil
	}
	if m.flagTimer != nil {
		m.flagTimer.Stop()
		m.flagTimer = nil
	}
	observability.IncSessionTransition(string(StateIdle))
}

func (m *Machine) clearInviteFlag(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return
	}
	m.justInvited = false
}

func (m *Machine) notifyLocked(event models.SessionEvent) {
	if m.notifier == nil {
		return
	}
	m.notifier.NotifySession(m.userID, event)
}
