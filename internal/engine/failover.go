package engine

import (
	"context"

	"github.com/rs/zerolog"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/logging"
	"brokerbridge/internal/models"
)

// FailoverController drives an ordered sequence of broker attempts until
// one yields success or partial, or every candidate is exhausted.
// Attempts run strictly sequentially; speculative parallel execution
// across brokers risks duplicate fills for the same logical order and is
// deliberately not supported.
type FailoverController struct {
	engine *ExecutionEngine
	logger zerolog.Logger
}

// NewFailoverController creates a controller over the given engine.
func NewFailoverController(engine *ExecutionEngine, logger zerolog.Logger) *FailoverController {
	return &FailoverController{engine: engine, logger: logger}
}

// Run executes the legs against the candidate brokers in order.
//
// With failover disabled only the first candidate is attempted and its
// outcome is returned unconditionally. With failover enabled the
// controller walks the candidates in order and stops at the first
// outcome that is success or partial; a partial outcome halts the run
// even though later candidates might have succeeded, because re-running
// a partially filled strategy on another broker can double-fill legs.
//
// The candidate order is a strict priority: it is never reordered and no
// broker is attempted twice within one run. A broker without a valid
// session counts as an immediately failed attempt. An unknown broker id
// aborts the run; that is a configuration defect, not a runtime
// condition.
func (f *FailoverController) Run(ctx context.Context, specs []models.OrderSpec, candidates []models.BrokerID, failoverEnabled bool) (models.ExecutionOutcome, error) {
	attempts := make([]models.Attempt, 0, len(candidates))

	if len(candidates) == 0 {
		return models.ExecutionOutcome{Status: models.OutcomeFailed, Attempts: attempts}, nil
	}
	if !failoverEnabled {
		candidates = candidates[:1]
	}

	last := models.ExecutionOutcome{Status: models.OutcomeFailed}
	tried := make(map[models.BrokerID]bool, len(candidates))

	for _, id := range candidates {
		if tried[id] {
			continue
		}
		tried[id] = true

		outcome, err := f.engine.Execute(ctx, id, specs)
		if err != nil {
			if bberrors.Is(err, bberrors.ErrUnknownBroker) {
				return outcome, err
			}
			// No session: record the failed attempt and move on.
			attempt := models.Attempt{Broker: id, Status: models.OutcomeFailed, Reason: err.Error()}
			attempts = append(attempts, attempt)
			logging.LogAttempt(f.logger, string(id), string(attempt.Status), attempt.Reason)
			last = outcome
			continue
		}

		attempt := models.Attempt{Broker: id, Status: outcome.Status, Reason: failureReason(outcome)}
		attempts = append(attempts, attempt)
		logging.LogAttempt(f.logger, string(id), string(attempt.Status), attempt.Reason)

		if outcome.Status == models.OutcomeSuccess || outcome.Status == models.OutcomePartial {
			outcome.Attempts = attempts
			return outcome, nil
		}
		last = outcome
	}

	last.Status = models.OutcomeFailed
	last.Attempts = attempts
	return last, nil
}

// failureReason summarizes why an outcome was not a full success, using
// the first non-accepted leg's message.
func failureReason(outcome models.ExecutionOutcome) string {
	if outcome.Status == models.OutcomeSuccess {
		return ""
	}
	for _, leg := range outcome.Legs {
		if leg.Status != models.OrderAccepted && leg.Message != "" {
			return leg.Message
		}
	}
	return ""
}
