package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
	"brokerbridge/pkg/utils"
)

// DefaultFyersBaseURL is the Fyers API v3 endpoint.
const DefaultFyersBaseURL = "https://api-t1.fyers.in/api/v3"

// FyersAdapter implements the Adapter interface for the Fyers REST API.
type FyersAdapter struct {
	sessionState

	restMu sync.Mutex
	rest   *resty.Client
}

// NewFyersAdapter creates a new Fyers adapter.
func NewFyersAdapter(creds models.Credentials) *FyersAdapter {
	f := &FyersAdapter{}
	f.Configure(creds)
	return f
}

// Name returns "fyers".
func (f *FyersAdapter) Name() models.BrokerID {
	return models.BrokerFyers
}

// Configure updates credentials and rebuilds the REST client.
func (f *FyersAdapter) Configure(creds models.Credentials) {
	f.configure(creds)

	base := creds.APIBaseURL
	if base == "" {
		base = DefaultFyersBaseURL
	}

	f.restMu.Lock()
	f.rest = resty.New().SetBaseURL(base)
	f.restMu.Unlock()
}

// SetSession installs an authenticated session.
func (f *FyersAdapter) SetSession(session models.Session) {
	f.setSession(session)
}

// ClearSession drops the session.
func (f *FyersAdapter) ClearSession() {
	f.clearSession()
}

// IsConfigured reports whether API credentials are present.
func (f *FyersAdapter) IsConfigured() bool {
	return f.configured()
}

// IsConnected reports whether a valid session is installed.
func (f *FyersAdapter) IsConnected() bool {
	return f.connected()
}

func (f *FyersAdapter) restClient() *resty.Client {
	f.restMu.Lock()
	defer f.restMu.Unlock()
	return f.rest
}

// fyersOrderResponse is the Fyers order API envelope.
type fyersOrderResponse struct {
	S       string `json:"s"` // "ok" or "error"
	Code    int    `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type fyersProfileResponse struct {
	S    string `json:"s"`
	Data struct {
		FyID  string `json:"fy_id"`
		Name  string `json:"name"`
		Email string `json:"email_id"`
	} `json:"data"`
}

func fyersSide(side models.OrderSide) int {
	if side == models.OrderSideSell {
		return -1
	}
	return 1
}

func fyersOrderType(t models.OrderType) int {
	if t == models.OrderTypeLimit {
		return 1
	}
	return 2 // market
}

func fyersProduct(p models.ProductType) string {
	switch p {
	case models.ProductCNC:
		return "CNC"
	case models.ProductNRML:
		return "MARGIN"
	default:
		return "INTRADAY"
	}
}

// PlaceOrder submits one leg to the Fyers order API.
func (f *FyersAdapter) PlaceOrder(ctx context.Context, spec models.OrderSpec) models.OrderResult {
	result := models.OrderResult{LegID: spec.LegID, Status: models.OrderError}

	creds, session := f.snapshot()
	if !creds.Configured() {
		result.Message = bberrors.ErrBrokerNotConfigured.Error()
		return result
	}
	if !session.Valid() {
		result.Message = bberrors.ErrBrokerNotConnected.Error()
		return result
	}

	symbol, err := fyersSymbol(spec)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.TradingSymbol = symbol

	payload := map[string]interface{}{
		"symbol":       symbol,
		"qty":          spec.Quantity,
		"type":         fyersOrderType(spec.Type),
		"side":         fyersSide(spec.Side),
		"productType":  fyersProduct(spec.Product),
		"limitPrice":   spec.Price,
		"stopPrice":    0,
		"validity":     "DAY",
		"disclosedQty": 0,
		"offlineOrder": false,
		"stopLoss":     0,
		"takeProfit":   0,
		"orderTag":     legTag(spec.LegID),
	}

	var out fyersOrderResponse
	resp, err := f.restClient().R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("%s:%s", creds.APIKey, session.AccessToken)).
		SetBody(payload).
		SetResult(&out).
		SetError(&out).
		Post("/orders/sync")
	if err != nil {
		result.Message = bberrors.NewBrokerError(string(models.BrokerFyers), "transport", err.Error(), nil).Error()
		return result
	}

	if resp.IsError() || out.S != "ok" {
		result.Status = models.OrderRejected
		result.Message = out.Message
		if result.Message == "" {
			result.Message = fmt.Sprintf("fyers rejected order (http %d)", resp.StatusCode())
		}
		return result
	}

	result.Status = models.OrderAccepted
	result.BrokerOrderID = out.ID
	result.Message = "order placed"
	return result
}

// ExecuteLegs submits every leg in order, preserving order in the results.
func (f *FyersAdapter) ExecuteLegs(ctx context.Context, specs []models.OrderSpec) []models.OrderResult {
	return placeAll(ctx, specs, f.PlaceOrder)
}

// GetProfile fetches the Fyers account profile. Profile reads are
// idempotent, so transient transport failures are retried.
func (f *FyersAdapter) GetProfile(ctx context.Context) (models.Profile, error) {
	creds, session := f.snapshot()
	if !creds.Configured() {
		return models.Profile{}, bberrors.ErrBrokerNotConfigured
	}
	if !session.Valid() {
		return models.Profile{}, bberrors.ErrBrokerNotConnected
	}

	out, err := utils.RetryWithBackoffResult(ctx, utils.DefaultRetryWithBackoff(), func() (fyersProfileResponse, error) {
		var body fyersProfileResponse
		resp, err := f.restClient().R().
			SetContext(ctx).
			SetHeader("Authorization", fmt.Sprintf("%s:%s", creds.APIKey, session.AccessToken)).
			SetResult(&body).
			Get("/profile")
		if err != nil {
			return body, err
		}
		if resp.IsError() {
			return body, fmt.Errorf("fyers profile request failed (http %d)", resp.StatusCode())
		}
		return body, nil
	})
	if err != nil {
		return models.Profile{}, bberrors.Wrap(err, "fetching fyers profile")
	}

	return models.Profile{
		Broker:   models.BrokerFyers,
		UserID:   out.Data.FyID,
		UserName: out.Data.Name,
		Email:    out.Data.Email,
	}, nil
}

// Ensure FyersAdapter implements the Adapter interface
var _ Adapter = (*FyersAdapter)(nil)
