package broker

import (
	"sync"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

// BrokerStatus is a point-in-time view of one broker's readiness.
type BrokerStatus struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

// Registry holds one adapter instance per known broker id and tracks
// which brokers have a valid session. Adapter registration is fixed at
// construction; sessions come and go through SetSession/Disconnect.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.BrokerID]Adapter
	order    []models.BrokerID
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.BrokerID]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, exists := r.adapters[a.Name()]; exists {
			continue
		}
		r.adapters[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r
}

// Get returns the adapter for a broker id.
func (r *Registry) Get(id models.BrokerID) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[id]
	if !ok {
		return nil, bberrors.Wrapf(bberrors.ErrUnknownBroker, "%s", id)
	}
	return adapter, nil
}

// Configure updates the credential set for a broker. It does not create
// a session; it only makes a later connect succeed.
func (r *Registry) Configure(id models.BrokerID, creds models.Credentials) error {
	adapter, err := r.Get(id)
	if err != nil {
		return err
	}
	adapter.Configure(creds)
	return nil
}

// SetSession installs an authenticated session for a broker.
func (r *Registry) SetSession(id models.BrokerID, session models.Session) error {
	adapter, err := r.Get(id)
	if err != nil {
		return err
	}
	adapter.SetSession(session)
	return nil
}

// Disconnect drops the broker's session. The adapter registration stays.
func (r *Registry) Disconnect(id models.BrokerID) error {
	adapter, err := r.Get(id)
	if err != nil {
		return err
	}
	adapter.ClearSession()
	return nil
}

// IsConnected reports whether the broker has a valid session. Unknown
// brokers report false.
func (r *Registry) IsConnected(id models.BrokerID) bool {
	adapter, err := r.Get(id)
	if err != nil {
		return false
	}
	return adapter.IsConnected()
}

// IDs returns the registered broker ids in registration order.
func (r *Registry) IDs() []models.BrokerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.BrokerID, len(r.order))
	copy(out, r.order)
	return out
}

// Status returns the readiness of every registered broker.
func (r *Registry) Status() map[models.BrokerID]BrokerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[models.BrokerID]BrokerStatus, len(r.adapters))
	for id, adapter := range r.adapters {
		out[id] = BrokerStatus{
			Configured: adapter.IsConfigured(),
			Connected:  adapter.IsConnected(),
		}
	}
	return out
}
