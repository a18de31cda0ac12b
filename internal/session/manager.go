package session

import (
	"sync"

	"match-service/internal/enrich"
	"match-service/internal/matching"
)

// Manager hands out one Machine per user, created lazily.
type Manager struct {
	mu       sync.Mutex
	machines map[string]*Machine

	scorer    *matching.Scorer
	generator enrich.Generator
	store     ConnectionStore
	notifier  Notifier
	cfg       Config
}

// NewManager builds an empty Manager.
func NewManager(scorer *matching.Scorer, generator enrich.Generator, store ConnectionStore, notifier Notifier, cfg Config) *Manager {
	return &Manager{
		machines:  make(map[string]*Machine),
		scorer:    scorer,
		generator: generator,
		store:     store,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// Machine returns the machine for a user, creating it in Idle.
func (mgr *Manager) Machine(userID string) *Machine {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	machine, ok := mgr.machines[userID]
	if !ok {
		machine = NewMachine(userID, mgr.scorer, mgr.generator, mgr.store, mgr.notifier, mgr.cfg)
		mgr.machines[userID] = machine
	}
	return machine
}

// Drop removes a user's machine after resetting it, used on checkout.
func (mgr *Manager) Drop(userID string) {
	mgr.mu.Lock()
	machine, ok := mgr.machines[userID]
	delete(mgr.machines, userID)
	mgr.mu.Unlock()
	if ok {
		machine.Reset()
	}
}
