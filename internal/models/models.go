// Package models provides domain models for the order bridge.
package models

import (
	"time"
)

// BrokerID identifies one of the supported brokerage backends.
type BrokerID string

const (
	BrokerZerodha  BrokerID = "zerodha"
	BrokerFyers    BrokerID = "fyers"
	BrokerStoxkart BrokerID = "stoxkart"
)

// AllBrokers returns the supported broker ids in their default priority order.
func AllBrokers() []BrokerID {
	return []BrokerID{BrokerZerodha, BrokerFyers, BrokerStoxkart}
}

// ParseBrokerID converts a raw string into a BrokerID.
func ParseBrokerID(s string) (BrokerID, bool) {
	switch BrokerID(s) {
	case BrokerZerodha, BrokerFyers, BrokerStoxkart:
		return BrokerID(s), true
	}
	return "", false
}

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	NFO Exchange = "NFO" // F&O
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductMIS  ProductType = "MIS"  // Intraday
	ProductCNC  ProductType = "CNC"  // Delivery
	ProductNRML ProductType = "NRML" // F&O Normal
)

// OptionType represents the option contract type.
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// OrderSpec is a canonical, broker-agnostic order for one leg.
// It is immutable once built by the strategy router.
type OrderSpec struct {
	LegID      string      `json:"leg_id"`
	Strategy   string      `json:"strategy,omitempty"`
	LegIndex   int         `json:"leg_index,omitempty"`
	Underlying string      `json:"underlying"`
	Strike     int         `json:"strike,omitempty"`
	OptionType OptionType  `json:"option_type,omitempty"`
	Expiry     string      `json:"expiry,omitempty"` // YYYY-MM-DD; empty means nearest
	Side       OrderSide   `json:"side"`
	Quantity   int         `json:"quantity"`
	Type       OrderType   `json:"order_type"`
	Price      float64     `json:"price,omitempty"`
	Product    ProductType `json:"product"`

	// Optional per-leg broker-specific symbol overrides. When empty the
	// adapter derives the symbol from the canonical fields above.
	FyersSymbol    string `json:"fyers_symbol,omitempty"`
	StoxkartSymbol string `json:"stoxkart_symbol,omitempty"`
}

// OrderStatus is the per-leg outcome status.
type OrderStatus string

const (
	OrderAccepted OrderStatus = "ACCEPTED"
	OrderRejected OrderStatus = "REJECTED" // broker refused the order
	OrderError    OrderStatus = "ERROR"    // transport or adapter failure
)

// OrderResult is the per-leg outcome of an order placement.
type OrderResult struct {
	LegID         string      `json:"leg_id"`
	Status        OrderStatus `json:"status"`
	BrokerOrderID string      `json:"broker_order_id,omitempty"`
	TradingSymbol string      `json:"trading_symbol,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// OutcomeStatus classifies a whole execution across legs.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomePartial OutcomeStatus = "partial"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Attempt records one broker attempt made during a failover run.
type Attempt struct {
	Broker BrokerID      `json:"broker"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// ExecutionOutcome aggregates per-leg results for one execution,
// plus the attempt history of the failover run that produced it.
type ExecutionOutcome struct {
	Broker   BrokerID      `json:"broker,omitempty"`
	Status   OutcomeStatus `json:"status"`
	Legs     []OrderResult `json:"legs,omitempty"`
	Attempts []Attempt     `json:"attempts,omitempty"`
}

// Session is an authenticated, ready-to-use handle for one broker.
// Sessions live in process memory only and are torn down on restart.
type Session struct {
	AccessToken   string    `json:"access_token"`
	ClientID      string    `json:"client_id,omitempty"`
	EstablishedAt time.Time `json:"established_at,omitempty"`
}

// Valid reports whether the session carries a usable token.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}

// Credentials holds the per-broker credential set used to establish sessions.
// Not every field applies to every broker.
type Credentials struct {
	APIKey      string `json:"api_key,omitempty"`
	APISecret   string `json:"api_secret,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
	AuthBaseURL string `json:"auth_base_url,omitempty"`
	TokenURL    string `json:"token_url,omitempty"`
	APIBaseURL  string `json:"api_base_url,omitempty"`
	TOTPSecret  string `json:"totp_secret,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// Configured reports whether the minimum credential set is present.
func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Profile is a broker account profile snapshot.
type Profile struct {
	Broker   BrokerID `json:"broker"`
	UserID   string   `json:"user_id"`
	UserName string   `json:"user_name,omitempty"`
	Email    string   `json:"email,omitempty"`
}
