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

// StoxkartAdapter implements the Adapter interface for the Stoxkart REST
// API. Stoxkart has no public SDK; the API base URL comes from
// configuration.
type StoxkartAdapter struct {
	sessionState

	restMu sync.Mutex
	rest   *resty.Client
}

// NewStoxkartAdapter creates a new Stoxkart adapter.
func NewStoxkartAdapter(creds models.Credentials) *StoxkartAdapter {
	s := &StoxkartAdapter{}
	s.Configure(creds)
	return s
}

// Name returns "stoxkart".
func (s *StoxkartAdapter) Name() models.BrokerID {
	return models.BrokerStoxkart
}

// Configure updates credentials and rebuilds the REST client.
func (s *StoxkartAdapter) Configure(creds models.Credentials) {
	s.configure(creds)

	s.restMu.Lock()
	s.rest = resty.New().SetBaseURL(creds.APIBaseURL)
	s.restMu.Unlock()
}

// SetSession installs an authenticated session.
func (s *StoxkartAdapter) SetSession(session models.Session) {
	s.setSession(session)
}

// ClearSession drops the session.
func (s *StoxkartAdapter) ClearSession() {
	s.clearSession()
}

// IsConfigured reports whether API credentials and the API endpoint are
// present.
func (s *StoxkartAdapter) IsConfigured() bool {
	creds, _ := s.snapshot()
	return creds.Configured() && creds.APIBaseURL != ""
}

// IsConnected reports whether a valid session is installed.
func (s *StoxkartAdapter) IsConnected() bool {
	return s.connected()
}

func (s *StoxkartAdapter) restClient() *resty.Client {
	s.restMu.Lock()
	defer s.restMu.Unlock()
	return s.rest
}

// stoxkartOrderResponse is the Stoxkart order API envelope.
type stoxkartOrderResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

type stoxkartProfileResponse struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (r stoxkartOrderResponse) accepted() bool {
	return r.Success || r.Status == "success"
}

// PlaceOrder submits one leg to the Stoxkart order API.
func (s *StoxkartAdapter) PlaceOrder(ctx context.Context, spec models.OrderSpec) models.OrderResult {
	result := models.OrderResult{LegID: spec.LegID, Status: models.OrderError}

	creds, session := s.snapshot()
	if !creds.Configured() || creds.APIBaseURL == "" {
		result.Message = bberrors.ErrBrokerNotConfigured.Error()
		return result
	}
	if !session.Valid() {
		result.Message = bberrors.ErrBrokerNotConnected.Error()
		return result
	}

	symbol, err := stoxkartSymbol(spec)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.TradingSymbol = symbol

	payload := map[string]interface{}{
		"symbol":           symbol,
		"quantity":         spec.Quantity,
		"transaction_type": string(spec.Side),
		"order_type":       string(spec.Type),
		"product":          string(spec.Product),
		"tag":              legTag(spec.LegID),
	}
	if spec.Type == models.OrderTypeLimit {
		payload["price"] = spec.Price
	}

	var out stoxkartOrderResponse
	resp, err := s.restClient().R().
		SetContext(ctx).
		SetAuthToken(session.AccessToken).
		SetBody(payload).
		SetResult(&out).
		SetError(&out).
		Post("/orders")
	if err != nil {
		result.Message = bberrors.NewBrokerError(string(models.BrokerStoxkart), "transport", err.Error(), nil).Error()
		return result
	}

	if resp.IsError() || !out.accepted() {
		result.Status = models.OrderRejected
		result.Message = out.Message
		if result.Message == "" {
			result.Message = fmt.Sprintf("stoxkart rejected order (http %d)", resp.StatusCode())
		}
		return result
	}

	result.Status = models.OrderAccepted
	result.BrokerOrderID = out.OrderID
	result.Message = "order placed"
	return result
}

// ExecuteLegs submits every leg in order, preserving order in the results.
func (s *StoxkartAdapter) ExecuteLegs(ctx context.Context, specs []models.OrderSpec) []models.OrderResult {
	return placeAll(ctx, specs, s.PlaceOrder)
}

// GetProfile fetches the Stoxkart account profile with retry on transient
// failures.
func (s *StoxkartAdapter) GetProfile(ctx context.Context) (models.Profile, error) {
	creds, session := s.snapshot()
	if !creds.Configured() || creds.APIBaseURL == "" {
		return models.Profile{}, bberrors.ErrBrokerNotConfigured
	}
	if !session.Valid() {
		return models.Profile{}, bberrors.ErrBrokerNotConnected
	}

	out, err := utils.RetryWithBackoffResult(ctx, utils.DefaultRetryWithBackoff(), func() (stoxkartProfileResponse, error) {
		var body stoxkartProfileResponse
		resp, err := s.restClient().R().
			SetContext(ctx).
			SetAuthToken(session.AccessToken).
			SetResult(&body).
			Get("/profile")
		if err != nil {
			return body, err
		}
		if resp.IsError() {
			return body, fmt.Errorf("stoxkart profile request failed (http %d)", resp.StatusCode())
		}
		return body, nil
	})
	if err != nil {
		return models.Profile{}, bberrors.Wrap(err, "fetching stoxkart profile")
	}

	return models.Profile{
		Broker:   models.BrokerStoxkart,
		UserID:   out.ClientID,
		UserName: out.Name,
		Email:    out.Email,
	}, nil
}

// Ensure StoxkartAdapter implements the Adapter interface
var _ Adapter = (*StoxkartAdapter)(nil)
