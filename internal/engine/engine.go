package engine

import (
	"context"

	"github.com/rs/zerolog"

	"brokerbridge/internal/broker"
	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/logging"
	"brokerbridge/internal/models"
)

// ExecutionEngine submits a set of order legs to a chosen broker and
// classifies the aggregate result.
type ExecutionEngine struct {
	registry *broker.Registry
	logger   zerolog.Logger
}

// NewExecutionEngine creates an engine over the given registry.
func NewExecutionEngine(registry *broker.Registry, logger zerolog.Logger) *ExecutionEngine {
	return &ExecutionEngine{registry: registry, logger: logger}
}

// Classify derives the overall outcome status from per-leg results:
// all legs accepted is success, none accepted is failed, anything in
// between is partial. Every other component relies on this single
// classification.
func Classify(legs []models.OrderResult) models.OutcomeStatus {
	if len(legs) == 0 {
		return models.OutcomeFailed
	}
	accepted := 0
	for _, leg := range legs {
		if leg.Status == models.OrderAccepted {
			accepted++
		}
	}
	switch accepted {
	case len(legs):
		return models.OutcomeSuccess
	case 0:
		return models.OutcomeFailed
	}
	return models.OutcomePartial
}

// Execute submits the legs to one broker. It fails fast before any
// network I/O when the broker is unknown (ErrUnknownBroker, a caller
// bug) or has no valid session (ErrBrokerNotConnected, recoverable via
// failover).
func (e *ExecutionEngine) Execute(ctx context.Context, id models.BrokerID, specs []models.OrderSpec) (models.ExecutionOutcome, error) {
	adapter, err := e.registry.Get(id)
	if err != nil {
		return models.ExecutionOutcome{Broker: id, Status: models.OutcomeFailed}, err
	}
	if !adapter.IsConnected() {
		return models.ExecutionOutcome{Broker: id, Status: models.OutcomeFailed},
			bberrors.Wrapf(bberrors.ErrBrokerNotConnected, "%s", id)
	}

	legs := adapter.ExecuteLegs(ctx, specs)
	for i, leg := range legs {
		symbol := leg.TradingSymbol
		if symbol == "" && i < len(specs) {
			symbol = specs[i].Underlying
		}
		side := ""
		if i < len(specs) {
			side = string(specs[i].Side)
		}
		logging.LogOrderResult(e.logger, string(id), leg.LegID, symbol, side, string(leg.Status), leg.Message)
	}

	return models.ExecutionOutcome{
		Broker: id,
		Status: Classify(legs),
		Legs:   legs,
	}, nil
}
