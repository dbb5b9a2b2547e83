// Package engine provides strategy expansion, order execution and the
// failover controller that sequences execution attempts across brokers.
package engine

import (
	"github.com/google/uuid"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

// StrategyRouter expands a strategy request into concrete order legs.
// Expansion is pure: no network calls, no shared state.
type StrategyRouter struct {
	DefaultProduct models.ProductType
}

// NewStrategyRouter creates a router with the given default product type.
func NewStrategyRouter(defaultProduct models.ProductType) *StrategyRouter {
	if defaultProduct == "" {
		defaultProduct = models.ProductNRML
	}
	return &StrategyRouter{DefaultProduct: defaultProduct}
}

// legTemplate is one leg of a strategy before common fields are filled in.
type legTemplate struct {
	side       models.OrderSide
	optionType models.OptionType
	strike     int
	expiry     string
}

// Expand expands a strategy request into its fixed set of order legs.
// Leg counts are fixed per strategy: single=1, call_spread=2,
// put_spread=2, calendar=2, iron_condor=4.
func (r *StrategyRouter) Expand(req models.StrategyRequest) ([]models.OrderSpec, error) {
	if req.Underlying == "" {
		return nil, bberrors.NewValidationError("underlying", req.Underlying, "required")
	}
	if req.Quantity <= 0 {
		return nil, bberrors.NewValidationError("quantity", req.Quantity, "must be positive")
	}

	templates, err := r.templates(req)
	if err != nil {
		return nil, err
	}

	want, _ := models.LegCount(req.Strategy)
	if len(templates) != want {
		// Leg templates are fixed per strategy; a mismatch here is a
		// construction defect, not a runtime condition.
		return nil, bberrors.Wrapf(bberrors.ErrInvalidStrategy,
			"%s expanded to %d legs, want %d", req.Strategy, len(templates), want)
	}

	specs := make([]models.OrderSpec, 0, len(templates))
	for i, tpl := range templates {
		spec := models.OrderSpec{
			LegID:      uuid.NewString(),
			Strategy:   string(req.Strategy),
			LegIndex:   i + 1,
			Underlying: req.Underlying,
			Strike:     tpl.strike,
			OptionType: tpl.optionType,
			Expiry:     tpl.expiry,
			Side:       tpl.side,
			Quantity:   req.Quantity,
			Type:       req.OrderType,
			Price:      req.Price,
			Product:    req.Product,

			FyersSymbol:    req.FyersSymbol,
			StoxkartSymbol: req.StoxkartSymbol,
		}
		if spec.Type == "" {
			spec.Type = models.OrderTypeMarket
		}
		if spec.Product == "" {
			spec.Product = r.DefaultProduct
		}
		for _, ov := range req.Overrides {
			if ov.Leg != i+1 {
				continue
			}
			if ov.FyersSymbol != "" {
				spec.FyersSymbol = ov.FyersSymbol
			}
			if ov.StoxkartSymbol != "" {
				spec.StoxkartSymbol = ov.StoxkartSymbol
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (r *StrategyRouter) templates(req models.StrategyRequest) ([]legTemplate, error) {
	switch req.Strategy {
	case models.StrategySingle:
		return r.single(req)
	case models.StrategyCallSpread:
		return r.callSpread(req)
	case models.StrategyPutSpread:
		return r.putSpread(req)
	case models.StrategyIronCondor:
		return r.ironCondor(req)
	case models.StrategyCalendar:
		return r.calendar(req)
	}
	return nil, bberrors.Wrapf(bberrors.ErrInvalidStrategy, "%s", req.Strategy)
}

func (r *StrategyRouter) single(req models.StrategyRequest) ([]legTemplate, error) {
	if req.OptionType != models.OptionCall && req.OptionType != models.OptionPut {
		return nil, bberrors.NewValidationError("option_type", req.OptionType, "must be CE or PE")
	}
	if req.Strike <= 0 {
		return nil, bberrors.NewValidationError("strike", req.Strike, "must be positive")
	}
	side := req.Side
	if side == "" {
		side = models.OrderSideBuy
	}
	return []legTemplate{
		{side: side, optionType: req.OptionType, strike: req.Strike, expiry: req.Expiry},
	}, nil
}

// callSpread is a debit call spread: buy the lower strike call, sell the
// higher strike call.
func (r *StrategyRouter) callSpread(req models.StrategyRequest) ([]legTemplate, error) {
	if err := requireStrikePair(req.LowerStrike, req.UpperStrike); err != nil {
		return nil, err
	}
	return []legTemplate{
		{side: models.OrderSideBuy, optionType: models.OptionCall, strike: req.LowerStrike, expiry: req.Expiry},
		{side: models.OrderSideSell, optionType: models.OptionCall, strike: req.UpperStrike, expiry: req.Expiry},
	}, nil
}

// putSpread is a debit put spread: buy the higher strike put, sell the
// lower strike put.
func (r *StrategyRouter) putSpread(req models.StrategyRequest) ([]legTemplate, error) {
	if err := requireStrikePair(req.LowerStrike, req.UpperStrike); err != nil {
		return nil, err
	}
	return []legTemplate{
		{side: models.OrderSideBuy, optionType: models.OptionPut, strike: req.UpperStrike, expiry: req.Expiry},
		{side: models.OrderSideSell, optionType: models.OptionPut, strike: req.LowerStrike, expiry: req.Expiry},
	}, nil
}

// ironCondor: long put wing, short put, short call, long call wing.
// Always 2 buys + 2 sells.
func (r *StrategyRouter) ironCondor(req models.StrategyRequest) ([]legTemplate, error) {
	strikes := []struct {
		name  string
		value int
	}{
		{"put_long_strike", req.PutLongStrike},
		{"put_short_strike", req.PutShortStrike},
		{"call_short_strike", req.CallShortStrike},
		{"call_long_strike", req.CallLongStrike},
	}
	for _, s := range strikes {
		if s.value <= 0 {
			return nil, bberrors.NewValidationError(s.name, s.value, "must be positive")
		}
	}
	if !(req.PutLongStrike < req.PutShortStrike &&
		req.PutShortStrike < req.CallShortStrike &&
		req.CallShortStrike < req.CallLongStrike) {
		return nil, bberrors.NewValidationError("strikes", "", "iron condor strikes must be strictly increasing: put_long < put_short < call_short < call_long")
	}
	return []legTemplate{
		{side: models.OrderSideBuy, optionType: models.OptionPut, strike: req.PutLongStrike, expiry: req.Expiry},
		{side: models.OrderSideSell, optionType: models.OptionPut, strike: req.PutShortStrike, expiry: req.Expiry},
		{side: models.OrderSideSell, optionType: models.OptionCall, strike: req.CallShortStrike, expiry: req.Expiry},
		{side: models.OrderSideBuy, optionType: models.OptionCall, strike: req.CallLongStrike, expiry: req.Expiry},
	}, nil
}

// calendar: sell the near expiry, buy the far expiry at the same strike.
func (r *StrategyRouter) calendar(req models.StrategyRequest) ([]legTemplate, error) {
	if req.OptionType != models.OptionCall && req.OptionType != models.OptionPut {
		return nil, bberrors.NewValidationError("option_type", req.OptionType, "must be CE or PE")
	}
	if req.Strike <= 0 {
		return nil, bberrors.NewValidationError("strike", req.Strike, "must be positive")
	}
	if req.Expiry == "" || req.FarExpiry == "" {
		return nil, bberrors.NewValidationError("expiry", req.Expiry, "calendar requires expiry and far_expiry")
	}
	if req.Expiry == req.FarExpiry {
		return nil, bberrors.NewValidationError("far_expiry", req.FarExpiry, "must differ from expiry")
	}
	return []legTemplate{
		{side: models.OrderSideSell, optionType: req.OptionType, strike: req.Strike, expiry: req.Expiry},
		{side: models.OrderSideBuy, optionType: req.OptionType, strike: req.Strike, expiry: req.FarExpiry},
	}, nil
}

func requireStrikePair(lower, upper int) error {
	if lower <= 0 {
		return bberrors.NewValidationError("lower_strike", lower, "must be positive")
	}
	if upper <= 0 {
		return bberrors.NewValidationError("upper_strike", upper, "must be positive")
	}
	if lower >= upper {
		return bberrors.NewValidationError("upper_strike", upper, "must be greater than lower_strike")
	}
	return nil
}
