package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"TradeSentinel/internal/logging"
	"TradeSentinel/internal/model"
)

// SQLiteRecorder persists trade history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so status queries can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logging.Component("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			trade_id   TEXT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			side       TEXT NOT NULL,
			price      REAL NOT NULL,
			quantity   REAL NOT NULL,
			amount     REAL NOT NULL,
			pnl        REAL DEFAULT 0,
			pnl_pct    REAL DEFAULT 0,
			reason     TEXT,
			paper_mode INTEGER DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS daily_summary (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			date             TEXT UNIQUE NOT NULL,
			starting_balance REAL,
			ending_balance   REAL,
			total_pnl        REAL,
			trade_count      INTEGER,
			win_count        INTEGER,
			loss_count       INTEGER
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(trade *model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	paper := 0
	if trade.Paper {
		paper = 1
	}
	_, err := r.db.Exec(`INSERT INTO trades
		(trade_id, timestamp, symbol, side, price, quantity, amount, pnl, pnl_pct, reason, paper_mode)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		trade.ID, trade.Time.Unix(), trade.Symbol, string(trade.Type),
		trade.Price, trade.Quantity, trade.Amount,
		trade.PnL, trade.PnLPct, trade.Reason, paper,
	)
	return err
}

func (r *SQLiteRecorder) SaveDailySummary(summary *DailySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO daily_summary
		(date, starting_balance, ending_balance, total_pnl, trade_count, win_count, loss_count)
		VALUES (?,?,?,?,?,?,?)`,
		summary.Date, summary.StartingBalance, summary.EndingBalance,
		summary.TotalPnL, summary.TradeCount, summary.WinCount, summary.LossCount,
	)
	return err
}

func (r *SQLiteRecorder) RecentTrades(limit int) ([]StoredTrade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, trade_id, timestamp, symbol, side,
		price, quantity, amount, pnl, pnl_pct, reason, paper_mode
		FROM trades ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []StoredTrade
	for rows.Next() {
		var t StoredTrade
		var ts int64
		var paper int
		if err := rows.Scan(&t.ID, &t.TradeID, &ts, &t.Symbol, &t.Side,
			&t.Price, &t.Quantity, &t.Amount, &t.PnL, &t.PnLPct, &t.Reason, &paper); err != nil {
			return nil, err
		}
		t.Time = time.Unix(ts, 0)
		t.Paper = paper == 1
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (r *SQLiteRecorder) Statistics() (*Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &Statistics{}
	queries := []struct {
		query string
		dest  interface{}
	}{
		{`SELECT COUNT(*) FROM trades`, &stats.TotalTrades},
		{`SELECT COUNT(*) FROM trades WHERE pnl > 0`, &stats.WinningTrades},
		{`SELECT COUNT(*) FROM trades WHERE pnl < 0`, &stats.LosingTrades},
		{`SELECT COALESCE(SUM(pnl), 0) FROM trades WHERE side = 'SELL'`, &stats.TotalPnL},
		{`SELECT COALESCE(MAX(pnl), 0) FROM trades`, &stats.BestTrade},
		{`SELECT COALESCE(MIN(pnl), 0) FROM trades WHERE pnl < 0`, &stats.WorstTrade},
	}
	for _, q := range queries {
		if err := r.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("stats query: %w", err)
		}
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	}
	return stats, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
