package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

func newTestSwitcher(t *testing.T) (*Switcher, *Registry) {
	t.Helper()
	registry := NewRegistry(
		newStubAdapter(models.BrokerZerodha),
		newStubAdapter(models.BrokerFyers),
		newStubAdapter(models.BrokerStoxkart),
	)
	switcher := NewSwitcher(registry, models.BrokerZerodha, models.AllBrokers())
	return switcher, registry
}

func connect(t *testing.T, registry *Registry, id models.BrokerID) {
	t.Helper()
	require.NoError(t, registry.Configure(id, testCreds()))
	require.NoError(t, registry.SetSession(id, models.Session{AccessToken: "token"}))
}

func TestSwitchToConnectedBroker(t *testing.T) {
	switcher, registry := newTestSwitcher(t)
	connect(t, registry, models.BrokerFyers)

	require.NoError(t, switcher.SwitchTo(models.BrokerFyers))
	assert.Equal(t, models.BrokerFyers, switcher.Active())
}

func TestSwitchToNotConnectedKeepsActive(t *testing.T) {
	switcher, _ := newTestSwitcher(t)

	err := switcher.SwitchTo(models.BrokerFyers)
	assert.ErrorIs(t, err, bberrors.ErrBrokerNotConnected)
	assert.Equal(t, models.BrokerZerodha, switcher.Active(), "failed switch leaves the active broker unchanged")
}

func TestSwitchToUnknownKeepsActive(t *testing.T) {
	switcher, _ := newTestSwitcher(t)

	err := switcher.SwitchTo("upstox")
	assert.ErrorIs(t, err, bberrors.ErrUnknownBroker)
	assert.Equal(t, models.BrokerZerodha, switcher.Active())
}

func TestSetPriorityValidatesBrokers(t *testing.T) {
	switcher, _ := newTestSwitcher(t)

	err := switcher.SetPriority([]models.BrokerID{models.BrokerFyers, "upstox"})
	assert.ErrorIs(t, err, bberrors.ErrUnknownBroker)

	require.NoError(t, switcher.SetPriority([]models.BrokerID{models.BrokerStoxkart, models.BrokerFyers}))
	assert.Equal(t, []models.BrokerID{models.BrokerStoxkart, models.BrokerFyers}, switcher.Priority())
}

func TestCandidateOrderActiveFirst(t *testing.T) {
	switcher, registry := newTestSwitcher(t)
	connect(t, registry, models.BrokerFyers)
	require.NoError(t, switcher.SwitchTo(models.BrokerFyers))

	order := switcher.CandidateOrder(nil)
	assert.Equal(t, []models.BrokerID{
		models.BrokerFyers, models.BrokerZerodha, models.BrokerStoxkart,
	}, order, "active broker leads, then priority order without duplicates")
}

func TestCandidateOrderExplicitVerbatim(t *testing.T) {
	switcher, _ := newTestSwitcher(t)

	explicit := []models.BrokerID{models.BrokerStoxkart, models.BrokerZerodha}
	order := switcher.CandidateOrder(explicit)
	assert.Equal(t, explicit, order)

	// Mutating the returned slice must not affect switcher state.
	order[0] = models.BrokerFyers
	assert.Equal(t, models.BrokerStoxkart, explicit[0])
}
