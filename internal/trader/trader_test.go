package trader

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"TradeSentinel/internal/config"
	"TradeSentinel/internal/ledger"
	"TradeSentinel/internal/market"
	"TradeSentinel/internal/metrics"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/strategy"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Trading.Symbol = "BTC/TRY"
	cfg.Trading.Timeframe = "1h"
	cfg.Trading.TradeAmount = 100
	cfg.Trading.InitialBalance = 1000
	cfg.Trading.MaxPosition = 500
	cfg.Trading.StopLossPct = 5
	cfg.Trading.TakeProfitPct = 10
	cfg.Scheduler.CheckIntervalMin = 15
	cfg.Scheduler.DailyReportTime = "20:00"
	return cfg
}

func newTestTrader(t *testing.T, fetcher market.Fetcher) (*Trader, *ledger.Manager) {
	t.Helper()
	cfg := testConfig()
	lm, err := ledger.NewManager(filepath.Join(t.TempDir(), "state.json"), cfg.Trading.InitialBalance)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	strat := strategy.NewRSIEMA(strategy.DefaultConfig())
	tn := notifier.NewTelegramNotifier("", "", "", false)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	tr := New(context.Background(), cfg, fetcher, strat, lm, nil, tn, recorder.NewNoopRecorder(), m)
	return tr, lm
}

// shortHistory yields too few bars for a signal, so only the stop-loss /
// take-profit override can act during a cycle.
func shortHistory(price float64) *market.MockFetcher {
	return &market.MockFetcher{
		Price: price,
		Bars:  market.GenerateMockBars(price, 50),
	}
}

func TestCheckMarket_StopLossClosesPosition(t *testing.T) {
	fetcher := shortHistory(89) // well below entry, past the 5% stop
	tr, lm := newTestTrader(t, fetcher)
	if _, err := lm.Buy("BTC/TRY", 100, 100, "setup"); err != nil {
		t.Fatal(err)
	}

	tr.CheckMarket()

	if _, ok := lm.Position("BTC/TRY"); ok {
		t.Fatal("stop loss should have closed the position")
	}
	trades := lm.Trades(0)
	last := trades[len(trades)-1]
	if last.Reason != "Stop loss" {
		t.Errorf("expected stop-loss sell, got reason %q", last.Reason)
	}
	if last.PnLPct > -5 {
		t.Errorf("expected realized loss past the stop, got %+.2f%%", last.PnLPct)
	}
}

func TestCheckMarket_TakeProfitClosesPosition(t *testing.T) {
	fetcher := shortHistory(112) // well above entry, past the 10% target
	tr, lm := newTestTrader(t, fetcher)
	if _, err := lm.Buy("BTC/TRY", 100, 100, "setup"); err != nil {
		t.Fatal(err)
	}

	tr.CheckMarket()

	if _, ok := lm.Position("BTC/TRY"); ok {
		t.Fatal("take profit should have closed the position")
	}
	trades := lm.Trades(0)
	last := trades[len(trades)-1]
	if last.Reason != "Take profit" {
		t.Errorf("expected take-profit sell, got reason %q", last.Reason)
	}
}

func TestCheckMarket_HoldInsideBand(t *testing.T) {
	fetcher := shortHistory(102) // +2%, inside the stop/target band
	tr, lm := newTestTrader(t, fetcher)
	if _, err := lm.Buy("BTC/TRY", 100, 100, "setup"); err != nil {
		t.Fatal(err)
	}

	tr.CheckMarket()

	if _, ok := lm.Position("BTC/TRY"); !ok {
		t.Fatal("position should survive a cycle inside the band")
	}
	if len(lm.Trades(0)) != 1 {
		t.Errorf("no new trades expected, got %d", len(lm.Trades(0)))
	}
}

func TestCheckMarket_FetchErrorProducesNoTrade(t *testing.T) {
	fetcher := &market.MockFetcher{Err: errors.New("fetch failed")}
	tr, lm := newTestTrader(t, fetcher)

	tr.CheckMarket()

	if len(lm.Trades(0)) != 0 {
		t.Error("fetch failure must not produce trades")
	}
	if got := testutil.ToFloat64(tr.metrics.FetchErrors); got != 1 {
		t.Errorf("expected 1 fetch error recorded, got %f", got)
	}
}

func TestExecuteBuy_MaxPositionCap(t *testing.T) {
	tr, lm := newTestTrader(t, shortHistory(100))

	// Five 100 TRY buys reach the 500 cap; the sixth is skipped.
	for i := 0; i < 6; i++ {
		tr.executeBuy(100, "test")
	}

	pos, ok := lm.Position("BTC/TRY")
	if !ok {
		t.Fatal("expected an open position")
	}
	if math.Abs(pos.Quantity*100-500) > 1e-9 {
		t.Errorf("expected position capped at 500, got %f", pos.Quantity*100)
	}
}

func TestExecuteSell_ResetsStrategyMemory(t *testing.T) {
	tr, lm := newTestTrader(t, shortHistory(100))
	if _, err := lm.Buy("BTC/TRY", 100, 100, "setup"); err != nil {
		t.Fatal(err)
	}

	tr.executeSell(120, "Manual sell")

	if _, ok := lm.Position("BTC/TRY"); ok {
		t.Fatal("manual sell should close the position")
	}
	trades := lm.Trades(0)
	last := trades[len(trades)-1]
	if last.Reason != "Manual sell" || last.PnL <= 0 {
		t.Errorf("unexpected sell trade %+v", last)
	}
}

func TestHandleCommand(t *testing.T) {
	tr, _ := newTestTrader(t, shortHistory(100))

	if reply := tr.HandleCommand("/help"); reply == "" {
		t.Error("/help should return the command list")
	}
	if reply := tr.HandleCommand("/trades"); reply != "📝 No trades yet" {
		t.Errorf("unexpected /trades reply %q", reply)
	}
	if reply := tr.HandleCommand("/nope"); reply != "Unknown command. Try /help" {
		t.Errorf("unexpected fallback reply %q", reply)
	}
}
