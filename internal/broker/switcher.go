package broker

import (
	"sync"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

// Switcher owns the active broker and the ordered priority list used for
// failover candidate ordering. SwitchTo and SetPriority are the only
// mutators; everything else reads a snapshot, so a concurrent switch
// during an in-flight failover run leaves that run on its stale (and
// acceptable) candidate order.
type Switcher struct {
	mu       sync.RWMutex
	registry *Registry
	active   models.BrokerID
	priority []models.BrokerID
}

// NewSwitcher creates a switcher with the given default active broker
// and failover priority.
func NewSwitcher(registry *Registry, active models.BrokerID, priority []models.BrokerID) *Switcher {
	s := &Switcher{
		registry: registry,
		active:   active,
	}
	s.priority = append(s.priority, priority...)
	return s
}

// Active returns the current active broker.
func (s *Switcher) Active() models.BrokerID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Priority returns a copy of the failover priority list.
func (s *Switcher) Priority() []models.BrokerID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BrokerID, len(s.priority))
	copy(out, s.priority)
	return out
}

// SwitchTo makes the broker active. It fails without touching the
// active broker when the target is unknown or has no valid session.
func (s *Switcher) SwitchTo(id models.BrokerID) error {
	if _, err := s.registry.Get(id); err != nil {
		return err
	}
	if !s.registry.IsConnected(id) {
		return bberrors.Wrapf(bberrors.ErrBrokerNotConnected, "%s", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
	return nil
}

// SetPriority replaces the failover priority list. Every entry must be a
// registered broker.
func (s *Switcher) SetPriority(priority []models.BrokerID) error {
	for _, id := range priority {
		if _, err := s.registry.Get(id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.priority = make([]models.BrokerID, len(priority))
	copy(s.priority, priority)
	return nil
}

// CandidateOrder returns the broker order for a failover run. An
// explicit caller-supplied list is used verbatim; otherwise the order is
// the active broker followed by the priority list, deduplicated.
func (s *Switcher) CandidateOrder(explicit []models.BrokerID) []models.BrokerID {
	if len(explicit) > 0 {
		out := make([]models.BrokerID, len(explicit))
		copy(out, explicit)
		return out
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.BrokerID{s.active}
	for _, id := range s.priority {
		if id == s.active {
			continue
		}
		out = append(out, id)
	}
	return out
}
