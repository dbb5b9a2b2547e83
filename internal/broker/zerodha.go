package broker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/models"
)

// ZerodhaAdapter implements the Adapter interface for Zerodha Kite Connect.
type ZerodhaAdapter struct {
	sessionState

	clientMu sync.Mutex
	client   *kiteconnect.Client

	instMu      sync.Mutex
	instruments []kiteconnect.Instrument
}

// NewZerodhaAdapter creates a new Zerodha adapter.
func NewZerodhaAdapter(creds models.Credentials) *ZerodhaAdapter {
	z := &ZerodhaAdapter{}
	z.Configure(creds)
	return z
}

// Name returns "zerodha".
func (z *ZerodhaAdapter) Name() models.BrokerID {
	return models.BrokerZerodha
}

// Configure updates credentials and rebuilds the Kite client. The cached
// NFO instrument dump is discarded because it is keyed to the API key.
func (z *ZerodhaAdapter) Configure(creds models.Credentials) {
	z.configure(creds)

	z.clientMu.Lock()
	if creds.APIKey != "" {
		z.client = kiteconnect.New(creds.APIKey)
	} else {
		z.client = nil
	}
	z.clientMu.Unlock()

	z.instMu.Lock()
	z.instruments = nil
	z.instMu.Unlock()

	if _, session := z.snapshot(); session.Valid() {
		z.applyToken(session.AccessToken)
	}
}

// SetSession installs an authenticated session.
func (z *ZerodhaAdapter) SetSession(session models.Session) {
	z.setSession(session)
	z.applyToken(session.AccessToken)
}

// ClearSession drops the session.
func (z *ZerodhaAdapter) ClearSession() {
	z.clearSession()
	z.applyToken("")
}

// IsConfigured reports whether API credentials are present.
func (z *ZerodhaAdapter) IsConfigured() bool {
	return z.configured()
}

// IsConnected reports whether a valid session is installed.
func (z *ZerodhaAdapter) IsConnected() bool {
	return z.connected()
}

func (z *ZerodhaAdapter) applyToken(token string) {
	z.clientMu.Lock()
	defer z.clientMu.Unlock()
	if z.client != nil {
		z.client.SetAccessToken(token)
	}
}

func (z *ZerodhaAdapter) kite() *kiteconnect.Client {
	z.clientMu.Lock()
	defer z.clientMu.Unlock()
	return z.client
}

// PlaceOrder resolves the NFO option contract for the leg and places a
// single order against it.
func (z *ZerodhaAdapter) PlaceOrder(ctx context.Context, spec models.OrderSpec) models.OrderResult {
	result := models.OrderResult{LegID: spec.LegID, Status: models.OrderError}

	client := z.kite()
	if client == nil {
		result.Message = bberrors.ErrBrokerNotConfigured.Error()
		return result
	}
	if !z.connected() {
		result.Message = bberrors.ErrBrokerNotConnected.Error()
		return result
	}

	contract, err := z.resolveContract(spec)
	if err != nil {
		result.Status = models.OrderRejected
		result.Message = err.Error()
		return result
	}
	result.TradingSymbol = contract.Tradingsymbol

	params := kiteconnect.OrderParams{
		Exchange:        string(models.NFO),
		Tradingsymbol:   contract.Tradingsymbol,
		TransactionType: string(spec.Side),
		OrderType:       string(spec.Type),
		Product:         string(spec.Product),
		Quantity:        spec.Quantity,
		Validity:        "DAY",
		Tag:             legTag(spec.LegID),
	}
	if spec.Type == models.OrderTypeLimit {
		params.Price = spec.Price
	}

	resp, err := client.PlaceOrder(kiteconnect.VarietyRegular, params)
	if err != nil {
		result.Status = models.OrderRejected
		result.Message = bberrors.NewBrokerError(string(models.BrokerZerodha), "place_order", err.Error(), nil).Error()
		return result
	}

	result.Status = models.OrderAccepted
	result.BrokerOrderID = resp.OrderID
	result.Message = "order placed"
	return result
}

// ExecuteLegs submits every leg in order, preserving order in the results.
func (z *ZerodhaAdapter) ExecuteLegs(ctx context.Context, specs []models.OrderSpec) []models.OrderResult {
	return placeAll(ctx, specs, z.PlaceOrder)
}

// GetProfile fetches the Kite user profile.
func (z *ZerodhaAdapter) GetProfile(ctx context.Context) (models.Profile, error) {
	client := z.kite()
	if client == nil {
		return models.Profile{}, bberrors.ErrBrokerNotConfigured
	}
	if !z.connected() {
		return models.Profile{}, bberrors.ErrBrokerNotConnected
	}

	profile, err := client.GetUserProfile()
	if err != nil {
		return models.Profile{}, bberrors.Wrap(err, "fetching zerodha profile")
	}

	return models.Profile{
		Broker:   models.BrokerZerodha,
		UserID:   profile.UserID,
		UserName: profile.UserName,
		Email:    profile.Email,
	}, nil
}

// resolveContract picks the NFO option instrument matching the leg's
// underlying, strike and option type. When the leg carries no expiry the
// nearest non-past expiry wins.
func (z *ZerodhaAdapter) resolveContract(spec models.OrderSpec) (kiteconnect.Instrument, error) {
	if spec.Strike <= 0 || spec.OptionType == "" {
		return kiteconnect.Instrument{}, bberrors.NewValidationError("strike", spec.Strike, "zerodha orders require strike and option_type")
	}

	instruments, err := z.nfoInstruments()
	if err != nil {
		return kiteconnect.Instrument{}, err
	}

	var wantExpiry time.Time
	if spec.Expiry != "" {
		wantExpiry, err = parseExpiry(spec.Expiry)
		if err != nil {
			return kiteconnect.Instrument{}, err
		}
	}

	today := time.Now().Truncate(24 * time.Hour)
	var candidates []kiteconnect.Instrument
	for _, inst := range instruments {
		if inst.Name != spec.Underlying {
			continue
		}
		if inst.InstrumentType != string(spec.OptionType) {
			continue
		}
		if int(inst.StrikePrice) != spec.Strike {
			continue
		}
		expiry := inst.Expiry.Time
		if expiry.Before(today) {
			continue
		}
		if !wantExpiry.IsZero() && !sameDay(expiry, wantExpiry) {
			continue
		}
		candidates = append(candidates, inst)
	}

	if len(candidates) == 0 {
		return kiteconnect.Instrument{}, bberrors.Wrapf(bberrors.ErrContractNotFound,
			"%s %d %s", spec.Underlying, spec.Strike, spec.OptionType)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Expiry.Time.Before(candidates[j].Expiry.Time)
	})
	return candidates[0], nil
}

// nfoInstruments returns the cached NFO instrument dump, fetching it when
// the cache is cold. The lock covers only the cache check and store, never
// the network call, so concurrent legs are not serialized behind the fetch.
// Concurrent cold-cache callers may fetch the dump more than once; the
// first stored result wins.
func (z *ZerodhaAdapter) nfoInstruments() ([]kiteconnect.Instrument, error) {
	z.instMu.Lock()
	cached := z.instruments
	z.instMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	client := z.kite()
	if client == nil {
		return nil, bberrors.ErrBrokerNotConfigured
	}

	all, err := client.GetInstruments()
	if err != nil {
		return nil, fmt.Errorf("fetching NFO instruments: %w", err)
	}

	nfo := make([]kiteconnect.Instrument, 0, len(all))
	for _, inst := range all {
		if inst.Exchange == string(models.NFO) {
			nfo = append(nfo, inst)
		}
	}

	z.instMu.Lock()
	if z.instruments == nil {
		z.instruments = nfo
	}
	cached = z.instruments
	z.instMu.Unlock()
	return cached, nil
}

func sameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Ensure ZerodhaAdapter implements the Adapter interface
var _ Adapter = (*ZerodhaAdapter)(nil)
