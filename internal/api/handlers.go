package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	bberrors "brokerbridge/internal/errors"
	"brokerbridge/internal/journal"
	"brokerbridge/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// errorStatusCode maps canonical errors to HTTP status codes.
func errorStatusCode(err error) int {
	switch {
	case bberrors.Is(err, bberrors.ErrUnknownBroker):
		return http.StatusNotFound
	case bberrors.Is(err, bberrors.ErrBrokerNotConnected),
		bberrors.Is(err, bberrors.ErrBrokerNotConfigured):
		return http.StatusConflict
	case bberrors.Is(err, bberrors.ErrInvalidStrategy),
		bberrors.Is(err, bberrors.ErrInvalidParameters):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// outcomeStatusCode maps an execution outcome to an HTTP status code.
// Partial fills use 207 so callers can distinguish them without parsing
// the body.
func outcomeStatusCode(status models.OutcomeStatus) int {
	switch status {
	case models.OutcomeSuccess:
		return http.StatusOK
	case models.OutcomePartial:
		return http.StatusMultiStatus
	}
	return http.StatusUnprocessableEntity
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- broker management ---

func (s *Server) handleBrokerStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":  s.switcher.Active(),
		"brokers": s.registry.Status(),
	})
}

func (s *Server) handleActiveBroker(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":   s.switcher.Active(),
		"priority": s.switcher.Priority(),
	})
}

type brokerRequest struct {
	Broker string `json:"broker"`
}

func parseBroker(raw string) (models.BrokerID, error) {
	id, ok := models.ParseBrokerID(raw)
	if !ok {
		return "", bberrors.Wrapf(bberrors.ErrUnknownBroker, "%s", raw)
	}
	return id, nil
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var req brokerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := parseBroker(req.Broker)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	if err := s.switcher.SwitchTo(id); err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	s.logger.Info().Str("broker", string(id)).Msg("Active broker switched")
	respondJSON(w, http.StatusOK, map[string]interface{}{"active": id})
}

type priorityRequest struct {
	Priority []string `json:"priority"`
}

func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	ids := make([]models.BrokerID, 0, len(req.Priority))
	for _, raw := range req.Priority {
		id, err := parseBroker(raw)
		if err != nil {
			respondError(w, errorStatusCode(err), err)
			return
		}
		ids = append(ids, id)
	}
	if err := s.switcher.SetPriority(ids); err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"priority": s.switcher.Priority()})
}

type configureRequest struct {
	Broker      string             `json:"broker"`
	Credentials models.Credentials `json:"credentials"`
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := parseBroker(req.Broker)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	if err := s.registry.Configure(id, req.Credentials); err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	s.logger.Info().Str("broker", string(id)).Msg("Broker configured")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"broker": id,
		"status": s.registry.Status()[id],
	})
}

type sessionRequest struct {
	Broker      string `json:"broker"`
	AccessToken string `json:"access_token"`
	ClientID    string `json:"client_id"`
}

func (s *Server) handleSetSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := parseBroker(req.Broker)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	if req.AccessToken == "" {
		respondError(w, http.StatusBadRequest, bberrors.NewValidationError("access_token", "", "required"))
		return
	}
	session := models.Session{
		AccessToken:   req.AccessToken,
		ClientID:      req.ClientID,
		EstablishedAt: time.Now(),
	}
	if err := s.registry.SetSession(id, session); err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	s.logger.Info().Str("broker", string(id)).Msg("Broker session installed")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"broker": id,
		"status": s.registry.Status()[id],
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req brokerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := parseBroker(req.Broker)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	if err := s.registry.Disconnect(id); err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	s.logger.Info().Str("broker", string(id)).Msg("Broker disconnected")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"broker": id,
		"status": s.registry.Status()[id],
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("broker")
	if raw == "" {
		raw = string(s.switcher.Active())
	}
	id, err := parseBroker(raw)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	adapter, err := s.registry.Get(id)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	profile, err := adapter.GetProfile(r.Context())
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// --- order execution ---

// executeRequest is the wire shape for both place-order and
// execute-strategy. place-order fixes the strategy to single.
type executeRequest struct {
	models.StrategyRequest

	Brokers  []string `json:"brokers,omitempty"`
	Failover *bool    `json:"failover,omitempty"`
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, req executeRequest) {
	specs, err := s.router.Expand(req.StrategyRequest)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}

	explicit := make([]models.BrokerID, 0, len(req.Brokers))
	for _, raw := range req.Brokers {
		id, perr := parseBroker(raw)
		if perr != nil {
			respondError(w, errorStatusCode(perr), perr)
			return
		}
		explicit = append(explicit, id)
	}

	failoverEnabled := s.cfg.Trading.FailoverEnabled
	if req.Failover != nil {
		failoverEnabled = *req.Failover
	}

	candidates := s.switcher.CandidateOrder(explicit)
	outcome, err := s.failover.Run(r.Context(), specs, candidates, failoverEnabled)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}

	if s.journal != nil && len(outcome.Legs) > 0 {
		if jerr := s.journal.Record(r.Context(), outcome, specs); jerr != nil {
			s.logger.Error().Err(jerr).Msg("Failed to journal execution")
		}
	}

	respondJSON(w, outcomeStatusCode(outcome.Status), outcome)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	req.Strategy = models.StrategySingle
	s.execute(w, r, req)
}

func (s *Server) handleExecuteStrategy(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Strategy == "" {
		respondError(w, http.StatusBadRequest, bberrors.NewValidationError("strategy", "", "required"))
		return
	}
	s.execute(w, r, req)
}

// executeOrdersRequest carries pre-built order legs, bypassing strategy
// expansion.
type executeOrdersRequest struct {
	Legs     []models.OrderSpec `json:"legs"`
	Brokers  []string           `json:"brokers,omitempty"`
	Failover *bool              `json:"failover,omitempty"`
}

// handleExecuteOrders executes a caller-supplied leg set directly. Legs
// without an id are assigned one so results stay correlatable.
func (s *Server) handleExecuteOrders(w http.ResponseWriter, r *http.Request) {
	var req executeOrdersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Legs) == 0 {
		respondError(w, http.StatusBadRequest, bberrors.NewValidationError("legs", "", "at least one leg is required"))
		return
	}
	for i := range req.Legs {
		leg := &req.Legs[i]
		if leg.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, bberrors.NewValidationError("quantity", leg.Quantity, "must be positive"))
			return
		}
		if leg.Side != models.OrderSideBuy && leg.Side != models.OrderSideSell {
			respondError(w, http.StatusBadRequest, bberrors.NewValidationError("side", leg.Side, "must be BUY or SELL"))
			return
		}
		if leg.LegID == "" {
			leg.LegID = uuid.NewString()
		}
		if leg.LegIndex == 0 {
			leg.LegIndex = i + 1
		}
		if leg.Type == "" {
			leg.Type = models.OrderTypeMarket
		}
		if leg.Product == "" {
			leg.Product = models.ProductType(s.cfg.Trading.DefaultProduct)
		}
	}

	explicit := make([]models.BrokerID, 0, len(req.Brokers))
	for _, raw := range req.Brokers {
		id, err := parseBroker(raw)
		if err != nil {
			respondError(w, errorStatusCode(err), err)
			return
		}
		explicit = append(explicit, id)
	}

	failoverEnabled := s.cfg.Trading.FailoverEnabled
	if req.Failover != nil {
		failoverEnabled = *req.Failover
	}

	candidates := s.switcher.CandidateOrder(explicit)
	outcome, err := s.failover.Run(r.Context(), req.Legs, candidates, failoverEnabled)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}

	if s.journal != nil && len(outcome.Legs) > 0 {
		if jerr := s.journal.Record(r.Context(), outcome, req.Legs); jerr != nil {
			s.logger.Error().Err(jerr).Msg("Failed to journal execution")
		}
	}

	respondJSON(w, outcomeStatusCode(outcome.Status), outcome)
}

// --- webhook ---

// webhookSignal is one received alert, kept in a bounded in-memory log.
type webhookSignal struct {
	ReceivedAt string               `json:"received_at"`
	Action     string               `json:"action"`
	Underlying string               `json:"underlying"`
	Strike     int                  `json:"strike"`
	OptionType string               `json:"option_type"`
	Quantity   int                  `json:"quantity"`
	Outcome    models.OutcomeStatus `json:"outcome,omitempty"`
}

// signalLog is a fixed-capacity ring of recent webhook signals.
type signalLog struct {
	mu      sync.Mutex
	max     int
	signals []webhookSignal
}

func newSignalLog(max int) *signalLog {
	return &signalLog{max: max}
}

func (l *signalLog) add(sig webhookSignal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signals = append(l.signals, sig)
	if len(l.signals) > l.max {
		l.signals = l.signals[len(l.signals)-l.max:]
	}
}

func (l *signalLog) recent() []webhookSignal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]webhookSignal, len(l.signals))
	copy(out, l.signals)
	return out
}

type webhookRequest struct {
	Action     string `json:"action"`
	Underlying string `json:"underlying"`
	Symbol     string `json:"symbol"` // alias for underlying
	Strike     int    `json:"strike"`
	OptionType string `json:"option_type"`
	Quantity   int    `json:"quantity"`
	Expiry     string `json:"expiry"`
	Product    string `json:"product"`
}

// handleWebhook accepts an external alert (TradingView style) and places
// a single option order through the failover controller.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	side := models.OrderSide(req.Action)
	if side != models.OrderSideBuy && side != models.OrderSideSell {
		err := bberrors.NewValidationError("action", req.Action, "must be BUY or SELL")
		respondError(w, http.StatusBadRequest, err)
		return
	}
	underlying := req.Underlying
	if underlying == "" {
		underlying = req.Symbol
	}

	strategyReq := models.StrategyRequest{
		Strategy:   models.StrategySingle,
		Underlying: underlying,
		Quantity:   req.Quantity,
		Side:       side,
		OptionType: models.OptionType(req.OptionType),
		Strike:     req.Strike,
		Expiry:     req.Expiry,
		Product:    models.ProductType(req.Product),
	}

	specs, err := s.router.Expand(strategyReq)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}

	candidates := s.switcher.CandidateOrder(nil)
	outcome, err := s.failover.Run(r.Context(), specs, candidates, s.cfg.Trading.FailoverEnabled)
	if err != nil {
		respondError(w, errorStatusCode(err), err)
		return
	}

	s.signals.add(webhookSignal{
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
		Action:     string(side),
		Underlying: underlying,
		Strike:     req.Strike,
		OptionType: req.OptionType,
		Quantity:   req.Quantity,
		Outcome:    outcome.Status,
	})

	if s.journal != nil && len(outcome.Legs) > 0 {
		if jerr := s.journal.Record(r.Context(), outcome, specs); jerr != nil {
			s.logger.Error().Err(jerr).Msg("Failed to journal webhook execution")
		}
	}

	respondJSON(w, outcomeStatusCode(outcome.Status), outcome)
}

func (s *Server) handleWebhookInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "listening",
		"signals": len(s.signals.recent()),
	})
}

func (s *Server) handleWebhookEvents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": s.signals.recent(),
	})
}

// --- journal ---

// requireJournal guards the journal-backed endpoints. The server runs
// without a journal when the database failed to open; execution paths
// skip recording, query paths report unavailable.
func (s *Server) requireJournal(w http.ResponseWriter) bool {
	if s.journal == nil {
		respondError(w, http.StatusServiceUnavailable, bberrors.ErrJournalUnavailable)
		return false
	}
	return true
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	trades, err := s.journal.RecentTrades(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if trades == nil {
		trades = []journal.TradeRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

func (s *Server) handleTradeAnalytics(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	analytics, err := s.journal.Analytics(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleGetRiskConfig(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	respondJSON(w, http.StatusOK, s.journal.Config())
}

func (s *Server) handleUpdateRiskConfig(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	var update journal.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, s.journal.UpdateConfig(update))
}
