// Package journal provides the sqlite-backed trade journal: a record of
// every execution outcome, simple analytics over it, and the in-memory
// risk configuration.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	_ "github.com/mattn/go-sqlite3"

	"brokerbridge/internal/models"
)

// TradeRecord is one journaled leg execution.
type TradeRecord struct {
	ID        string  `json:"id" csv:"id"`
	Timestamp string  `json:"timestamp" csv:"timestamp"`
	Broker    string  `json:"broker" csv:"broker"`
	Strategy  string  `json:"strategy" csv:"strategy"`
	Symbol    string  `json:"symbol" csv:"symbol"`
	Side      string  `json:"side" csv:"side"`
	Quantity  int     `json:"quantity" csv:"quantity"`
	Status    string  `json:"status" csv:"status"`
	OrderID   string  `json:"order_id" csv:"order_id"`
	Message   string  `json:"message" csv:"message"`
	PnL       float64 `json:"pnl" csv:"pnl"`
}

// RiskConfig holds the journal's runtime risk settings.
type RiskConfig struct {
	DailyLossLimit float64 `json:"daily_loss_limit"`
	PaperTrading   bool    `json:"paper_trading"`
	SummaryEmail   string  `json:"summary_email"`
}

// Analytics summarizes journaled executions.
type Analytics struct {
	ExecutedTrades int     `json:"executed_trades"`
	AcceptedTrades int     `json:"accepted_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgProfit      float64 `json:"avg_profit"`
	AvgLoss        float64 `json:"avg_loss"`
	NetPnL         float64 `json:"net_pnl"`

	// Accepted call vs put legs, a rough directional bias indicator.
	CallTrades int `json:"call_trades"`
	PutTrades  int `json:"put_trades"`
}

// Journal is the sqlite-backed trade journal. Risk configuration lives
// in memory and resets on restart.
type Journal struct {
	db *sql.DB

	mu  sync.RWMutex
	cfg RiskConfig
}

// New opens (or creates) the journal database at dbPath.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:  db,
		cfg: RiskConfig{PaperTrading: true},
	}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		broker TEXT NOT NULL,
		strategy TEXT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		status TEXT NOT NULL,
		order_id TEXT,
		message TEXT,
		pnl REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_executions_timestamp ON executions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_executions_broker ON executions(broker);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record journals every leg of an execution outcome.
func (j *Journal) Record(ctx context.Context, outcome models.ExecutionOutcome, specs []models.OrderSpec) error {
	specByLeg := make(map[string]models.OrderSpec, len(specs))
	for _, spec := range specs {
		specByLeg[spec.LegID] = spec
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning journal transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO executions
		(id, timestamp, broker, strategy, symbol, side, quantity, status, order_id, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing journal insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, leg := range outcome.Legs {
		spec := specByLeg[leg.LegID]
		symbol := leg.TradingSymbol
		if symbol == "" {
			symbol = spec.Underlying
		}
		if _, err := stmt.ExecContext(ctx,
			leg.LegID, now, string(outcome.Broker), spec.Strategy, symbol,
			string(spec.Side), spec.Quantity, string(leg.Status),
			leg.BrokerOrderID, leg.Message,
		); err != nil {
			return fmt.Errorf("journaling leg %s: %w", leg.LegID, err)
		}
	}

	return tx.Commit()
}

// RecentTrades returns the most recent journaled legs, newest first.
func (j *Journal) RecentTrades(ctx context.Context, limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, timestamp, broker, COALESCE(strategy, ''), symbol, side,
		       quantity, status, COALESCE(order_id, ''), COALESCE(message, ''), pnl
		FROM executions ORDER BY timestamp DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent trades: %w", err)
	}
	defer rows.Close()

	var records []TradeRecord
	for rows.Next() {
		var r TradeRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Broker, &r.Strategy, &r.Symbol,
			&r.Side, &r.Quantity, &r.Status, &r.OrderID, &r.Message, &r.PnL); err != nil {
			return nil, fmt.Errorf("scanning trade record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SetPnL records the realized pnl for a journaled leg.
func (j *Journal) SetPnL(ctx context.Context, legID string, pnl float64) error {
	res, err := j.db.ExecContext(ctx, `UPDATE executions SET pnl = ? WHERE id = ?`, pnl, legID)
	if err != nil {
		return fmt.Errorf("updating pnl: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no journaled leg with id %s", legID)
	}
	return nil
}

// Analytics computes summary statistics over all journaled legs.
func (j *Journal) Analytics(ctx context.Context) (Analytics, error) {
	var a Analytics
	row := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN pnl < 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN pnl > 0 THEN pnl ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN pnl < 0 THEN pnl ELSE 0 END), 0),
		       COALESCE(SUM(pnl), 0),
		       COALESCE(SUM(CASE WHEN status = ? AND symbol LIKE '%CE' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? AND symbol LIKE '%PE' THEN 1 ELSE 0 END), 0)
		FROM executions`,
		string(models.OrderAccepted), string(models.OrderAccepted), string(models.OrderAccepted))

	var wins, losses int
	var winSum, lossSum float64
	if err := row.Scan(&a.ExecutedTrades, &a.AcceptedTrades, &wins, &losses, &winSum, &lossSum, &a.NetPnL,
		&a.CallTrades, &a.PutTrades); err != nil {
		return a, fmt.Errorf("computing analytics: %w", err)
	}

	closed := wins + losses
	if closed > 0 {
		a.WinRate = float64(wins) / float64(closed) * 100.0
	}
	if wins > 0 {
		a.AvgProfit = winSum / float64(wins)
	}
	if losses > 0 {
		a.AvgLoss = lossSum / float64(losses)
	}
	return a, nil
}

// ExportCSV writes all journaled legs as CSV.
func (j *Journal) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := j.RecentTrades(ctx, 10000)
	if err != nil {
		return err
	}
	if records == nil {
		records = []TradeRecord{}
	}
	return gocsv.Marshal(&records, w)
}

// Config returns the current risk configuration.
func (j *Journal) Config() RiskConfig {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.cfg
}

// ConfigUpdate is a partial risk configuration update; nil fields keep
// their current value.
type ConfigUpdate struct {
	DailyLossLimit *float64 `json:"daily_loss_limit"`
	PaperTrading   *bool    `json:"paper_trading"`
	SummaryEmail   *string  `json:"summary_email"`
}

// UpdateConfig applies a partial update and returns the new config.
func (j *Journal) UpdateConfig(update ConfigUpdate) RiskConfig {
	j.mu.Lock()
	defer j.mu.Unlock()
	if update.DailyLossLimit != nil {
		limit := *update.DailyLossLimit
		if limit < 0 {
			limit = 0
		}
		j.cfg.DailyLossLimit = limit
	}
	if update.PaperTrading != nil {
		j.cfg.PaperTrading = *update.PaperTrading
	}
	if update.SummaryEmail != nil {
		j.cfg.SummaryEmail = *update.SummaryEmail
	}
	return j.cfg
}
