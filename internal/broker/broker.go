// Package broker provides the unified broker adapter contract and the
// implementations for the supported brokerage backends.
package broker

import (
	"context"
	"strings"
	"sync"

	"brokerbridge/internal/models"
)

// Adapter is the common contract every brokerage backend implements.
// Adapters translate the canonical OrderSpec into the broker's wire shape
// and map broker error codes into canonical OrderResult statuses. An
// adapter performs exactly one outbound network operation per leg and
// never retries; retry and failover policy live in the execution engine.
type Adapter interface {
	// Name returns the broker identifier.
	Name() models.BrokerID

	// Configure updates the in-memory credential set used to establish
	// sessions. It does not itself create a session.
	Configure(creds models.Credentials)

	// SetSession installs an authenticated session handle.
	SetSession(session models.Session)

	// ClearSession drops the session. Subsequent IsConnected returns false.
	ClearSession()

	// IsConfigured reports whether the minimum credential set is present.
	IsConfigured() bool

	// IsConnected reports whether a valid session is installed.
	IsConnected() bool

	// PlaceOrder submits one leg. Errors are captured in the result
	// rather than returned, so callers can aggregate per-leg outcomes.
	PlaceOrder(ctx context.Context, spec models.OrderSpec) models.OrderResult

	// ExecuteLegs submits every leg in order and returns results in the
	// same order. All legs are attempted even if an earlier leg fails.
	ExecuteLegs(ctx context.Context, specs []models.OrderSpec) []models.OrderResult

	// GetProfile fetches the broker account profile.
	GetProfile(ctx context.Context) (models.Profile, error)
}

// placeAll drives ExecuteLegs for every adapter: legs are submitted
// strictly in order and a failed leg never aborts the remainder, so a
// strategy's partial fills stay visible to the engine.
func placeAll(ctx context.Context, specs []models.OrderSpec, place func(context.Context, models.OrderSpec) models.OrderResult) []models.OrderResult {
	results := make([]models.OrderResult, 0, len(specs))
	for _, spec := range specs {
		results = append(results, place(ctx, spec))
	}
	return results
}

// sessionState holds the mutable credential and session state shared by
// all adapters. Mutation happens only through Configure/SetSession/
// ClearSession; order paths read a snapshot and never hold the lock
// across a network call.
type sessionState struct {
	mu      sync.RWMutex
	creds   models.Credentials
	session models.Session
}

func (s *sessionState) configure(creds models.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Changing the key pair invalidates any session established under the
	// previous credentials, unless the caller supplied a token alongside.
	if creds.AccessToken != "" {
		s.session = models.Session{AccessToken: creds.AccessToken}
	} else if creds.APIKey != s.creds.APIKey || creds.APISecret != s.creds.APISecret {
		s.session = models.Session{}
	}
	s.creds = creds
}

func (s *sessionState) setSession(session models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *sessionState) clearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.Session{}
}

func (s *sessionState) configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Configured()
}

func (s *sessionState) connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Valid()
}

// snapshot returns a copy of the credentials and session for use during a
// network call.
func (s *sessionState) snapshot() (models.Credentials, models.Session) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.session
}

// legTag derives a broker order tag from a leg id. Zerodha caps tags at
// 20 alphanumeric characters.
func legTag(legID string) string {
	tag := strings.ReplaceAll(legID, "-", "")
	if len(tag) > 20 {
		tag = tag[:20]
	}
	return tag
}
