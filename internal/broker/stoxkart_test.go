package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerbridge/internal/models"
)

func newStoxkartTestAdapter(baseURL string) *StoxkartAdapter {
	adapter := NewStoxkartAdapter(models.Credentials{
		APIKey:     "SK123",
		APISecret:  "secret",
		APIBaseURL: baseURL,
	})
	adapter.SetSession(models.Session{AccessToken: "sk-token"})
	return adapter
}

func stoxkartLeg() models.OrderSpec {
	return models.OrderSpec{
		LegID:      "leg-1",
		Underlying: "NIFTY",
		Strike:     24000,
		OptionType: models.OptionPut,
		Expiry:     "2025-09-25",
		Side:       models.OrderSideSell,
		Quantity:   75,
		Type:       models.OrderTypeLimit,
		Price:      101.5,
		Product:    models.ProductNRML,
	}
}

func TestStoxkartPlaceOrderAccepted(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "order_id": "SK-7", "message": "placed",
		})
	}))
	defer srv.Close()

	adapter := newStoxkartTestAdapter(srv.URL)
	result := adapter.PlaceOrder(context.Background(), stoxkartLeg())

	assert.Equal(t, models.OrderAccepted, result.Status)
	assert.Equal(t, "SK-7", result.BrokerOrderID)
	assert.Equal(t, "NIFTY25SEP2524000PE", result.TradingSymbol)

	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	assert.Equal(t, "SELL", gotPayload["transaction_type"])
	assert.Equal(t, 101.5, gotPayload["price"], "limit orders carry the price")
}

func TestStoxkartPlaceOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false, "status": "error", "message": "rms block",
		})
	}))
	defer srv.Close()

	adapter := newStoxkartTestAdapter(srv.URL)
	result := adapter.PlaceOrder(context.Background(), stoxkartLeg())

	assert.Equal(t, models.OrderRejected, result.Status)
	assert.Equal(t, "rms block", result.Message)
}

func TestStoxkartNotConfiguredWithoutBaseURL(t *testing.T) {
	adapter := NewStoxkartAdapter(models.Credentials{APIKey: "SK123", APISecret: "secret"})
	assert.False(t, adapter.IsConfigured(), "stoxkart needs an API endpoint")

	adapter.SetSession(models.Session{AccessToken: "t"})
	result := adapter.PlaceOrder(context.Background(), stoxkartLeg())
	assert.Equal(t, models.OrderError, result.Status)
}
