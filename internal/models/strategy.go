package models

// StrategyName is a named multi-leg option strategy template.
type StrategyName string

const (
	StrategySingle     StrategyName = "single"
	StrategyIronCondor StrategyName = "iron_condor"
	StrategyCallSpread StrategyName = "call_spread"
	StrategyPutSpread  StrategyName = "put_spread"
	StrategyCalendar   StrategyName = "calendar"
)

// LegCount returns the fixed leg count for a strategy name.
func LegCount(name StrategyName) (int, bool) {
	switch name {
	case StrategySingle:
		return 1, true
	case StrategyCallSpread, StrategyPutSpread, StrategyCalendar:
		return 2, true
	case StrategyIronCondor:
		return 4, true
	}
	return 0, false
}

// SymbolOverride carries optional broker-specific symbols for one leg,
// identified by its 1-based leg index within the expanded strategy.
type SymbolOverride struct {
	Leg            int    `json:"leg"`
	FyersSymbol    string `json:"fyers_symbol,omitempty"`
	StoxkartSymbol string `json:"stoxkart_symbol,omitempty"`
}

// StrategyRequest describes a single order or a named spread to execute.
// Which strike/expiry fields are required depends on the strategy.
type StrategyRequest struct {
	Strategy   StrategyName `json:"strategy"`
	Underlying string       `json:"underlying"`
	Quantity   int          `json:"quantity"`
	Product    ProductType  `json:"product,omitempty"`
	OrderType  OrderType    `json:"order_type,omitempty"`
	Price      float64      `json:"price,omitempty"`

	// single
	Side       OrderSide  `json:"side,omitempty"`
	OptionType OptionType `json:"option_type,omitempty"`
	Strike     int        `json:"strike,omitempty"`

	// call_spread / put_spread
	LowerStrike int `json:"lower_strike,omitempty"`
	UpperStrike int `json:"upper_strike,omitempty"`

	// iron_condor
	PutLongStrike   int `json:"put_long_strike,omitempty"`
	PutShortStrike  int `json:"put_short_strike,omitempty"`
	CallShortStrike int `json:"call_short_strike,omitempty"`
	CallLongStrike  int `json:"call_long_strike,omitempty"`

	// expiries (YYYY-MM-DD); FarExpiry is calendar-only
	Expiry    string `json:"expiry,omitempty"`
	FarExpiry string `json:"far_expiry,omitempty"`

	// request-level broker symbol fallbacks plus per-leg overrides
	FyersSymbol    string           `json:"fyers_symbol,omitempty"`
	StoxkartSymbol string           `json:"stoxkart_symbol,omitempty"`
	Overrides      []SymbolOverride `json:"overrides,omitempty"`
}
