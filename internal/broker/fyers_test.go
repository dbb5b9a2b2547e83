package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerbridge/internal/models"
)

func newFyersTestAdapter(baseURL string) *FyersAdapter {
	adapter := NewFyersAdapter(models.Credentials{
		APIKey:     "FY123",
		APISecret:  "secret",
		APIBaseURL: baseURL,
	})
	adapter.SetSession(models.Session{AccessToken: "token"})
	return adapter
}

func fyersLeg() models.OrderSpec {
	return models.OrderSpec{
		LegID:      "leg-1",
		Underlying: "NIFTY",
		Strike:     24000,
		OptionType: models.OptionCall,
		Expiry:     "2025-09-25",
		Side:       models.OrderSideBuy,
		Quantity:   75,
		Type:       models.OrderTypeMarket,
		Product:    models.ProductNRML,
	}
}

func TestFyersPlaceOrderAccepted(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders/sync", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s": "ok", "code": 1101, "message": "Order submitted", "id": "FY-42",
		})
	}))
	defer srv.Close()

	adapter := newFyersTestAdapter(srv.URL)
	result := adapter.PlaceOrder(context.Background(), fyersLeg())

	assert.Equal(t, models.OrderAccepted, result.Status)
	assert.Equal(t, "FY-42", result.BrokerOrderID)
	assert.Equal(t, "leg-1", result.LegID)
	assert.Equal(t, "NSE:NIFTY25SEP24000CE", result.TradingSymbol)

	assert.Equal(t, "FY123:token", gotAuth)
	assert.Equal(t, "NSE:NIFTY25SEP24000CE", gotPayload["symbol"])
	assert.Equal(t, float64(1), gotPayload["side"])
	assert.Equal(t, float64(2), gotPayload["type"], "market orders map to type 2")
	assert.Equal(t, "MARGIN", gotPayload["productType"], "NRML maps to MARGIN")
}

func TestFyersPlaceOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s": "error", "code": -99, "message": "insufficient margin",
		})
	}))
	defer srv.Close()

	adapter := newFyersTestAdapter(srv.URL)
	result := adapter.PlaceOrder(context.Background(), fyersLeg())

	assert.Equal(t, models.OrderRejected, result.Status)
	assert.Equal(t, "insufficient margin", result.Message)
	assert.Empty(t, result.BrokerOrderID)
}

func TestFyersPlaceOrderTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	adapter := newFyersTestAdapter(srv.URL)
	result := adapter.PlaceOrder(context.Background(), fyersLeg())

	assert.Equal(t, models.OrderError, result.Status, "transport failures are errors, not rejections")
	assert.NotEmpty(t, result.Message)
}

func TestFyersPlaceOrderWithoutSession(t *testing.T) {
	adapter := NewFyersAdapter(models.Credentials{APIKey: "FY123", APISecret: "secret"})

	result := adapter.PlaceOrder(context.Background(), fyersLeg())
	assert.Equal(t, models.OrderError, result.Status)
}

func TestFyersExecuteLegsAttemptsAll(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			json.NewEncoder(w).Encode(map[string]interface{}{"s": "error", "message": "rejected"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"s": "ok", "id": "FY-2"})
	}))
	defer srv.Close()

	adapter := newFyersTestAdapter(srv.URL)
	first := fyersLeg()
	second := fyersLeg()
	second.LegID = "leg-2"
	second.Side = models.OrderSideSell
	second.Strike = 24200

	results := adapter.ExecuteLegs(context.Background(), []models.OrderSpec{first, second})
	require.Len(t, results, 2)
	assert.Equal(t, models.OrderRejected, results[0].Status)
	assert.Equal(t, models.OrderAccepted, results[1].Status, "a rejected leg does not abort later legs")
	assert.Equal(t, 2, calls)
}

func TestFyersGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/profile", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"s": "ok",
			"data": map[string]string{
				"fy_id": "FY123", "name": "Test Trader", "email_id": "trader@example.com",
			},
		})
	}))
	defer srv.Close()

	adapter := newFyersTestAdapter(srv.URL)
	profile, err := adapter.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.BrokerFyers, profile.Broker)
	assert.Equal(t, "FY123", profile.UserID)
	assert.Equal(t, "Test Trader", profile.UserName)
}
