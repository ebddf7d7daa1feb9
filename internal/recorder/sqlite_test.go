package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"TradeSentinel/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sellTrade(pnl float64) *model.Trade {
	return &model.Trade{
		ID:       "t-sell",
		Type:     model.SignalSell,
		Symbol:   "BTC/TRY",
		Price:    110,
		Quantity: 1,
		Amount:   110,
		PnL:      pnl,
		PnLPct:   pnl,
		Reason:   "test",
		Paper:    true,
		Time:     time.Now(),
	}
}

func TestRecordAndReadBack(t *testing.T) {
	r := newTestRecorder(t)

	buy := &model.Trade{
		ID: "t-buy", Type: model.SignalBuy, Symbol: "BTC/TRY",
		Price: 100, Quantity: 1, Amount: 100, Paper: true, Time: time.Now(),
	}
	if err := r.RecordTrade(buy); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}
	if err := r.RecordTrade(sellTrade(10)); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}

	trades, err := r.RecentTrades(10)
	if err != nil {
		t.Fatalf("RecentTrades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Side != "SELL" && trades[1].Side != "SELL" {
		t.Error("sell trade missing from read-back")
	}
}

func TestStatistics(t *testing.T) {
	r := newTestRecorder(t)

	r.RecordTrade(sellTrade(10))
	r.RecordTrade(sellTrade(-4))
	r.RecordTrade(sellTrade(2))

	stats, err := r.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalTrades != 3 || stats.WinningTrades != 2 || stats.LosingTrades != 1 {
		t.Errorf("unexpected counts %+v", stats)
	}
	if stats.TotalPnL != 8 {
		t.Errorf("expected total pnl 8, got %f", stats.TotalPnL)
	}
	if stats.BestTrade != 10 || stats.WorstTrade != -4 {
		t.Errorf("unexpected best/worst %+v", stats)
	}
}

func TestDailySummaryUpsert(t *testing.T) {
	r := newTestRecorder(t)

	s := &DailySummary{Date: "2025-06-01", StartingBalance: 1000, EndingBalance: 1100,
		TotalPnL: 100, TradeCount: 2, WinCount: 2}
	if err := r.SaveDailySummary(s); err != nil {
		t.Fatalf("SaveDailySummary: %v", err)
	}
	// Same date again replaces the row instead of failing the UNIQUE constraint.
	s.EndingBalance = 1200
	if err := r.SaveDailySummary(s); err != nil {
		t.Fatalf("SaveDailySummary upsert: %v", err)
	}

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM daily_summary`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 summary row, got %d", count)
	}
}
