// Package trader runs the scheduled trading loop: fetch bars, derive a
// signal, execute against the paper ledger or the live exchange, apply the
// stop-loss / take-profit override, and report out.
package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"TradeSentinel/internal/config"
	"TradeSentinel/internal/exchange"
	"TradeSentinel/internal/health"
	"TradeSentinel/internal/ledger"
	"TradeSentinel/internal/logging"
	"TradeSentinel/internal/market"
	"TradeSentinel/internal/metrics"
	"TradeSentinel/internal/model"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/strategy"
)

// Trader wires the strategy, ledger and collaborators into the cron loop.
// The mutex serializes scheduled cycles against Telegram-driven commands;
// everything that mutates the ledger or strategy memory runs under it.
type Trader struct {
	cfg      *config.Config
	cron     *cron.Cron
	fetcher  market.Fetcher
	strategy *strategy.RSIEMAStrategy
	ledger   *ledger.Manager
	exchange *exchange.Client // nil in paper mode
	notifier *notifier.TelegramNotifier
	recorder recorder.Recorder
	metrics  *metrics.Metrics
	ctx      context.Context
	log      zerolog.Logger

	mu        sync.Mutex
	running   bool
	lastCheck time.Time
}

// New creates a Trader. exch may be nil when paper mode is on.
func New(ctx context.Context, cfg *config.Config, fetcher market.Fetcher,
	strat *strategy.RSIEMAStrategy, lm *ledger.Manager, exch *exchange.Client,
	tn *notifier.TelegramNotifier, rec recorder.Recorder, m *metrics.Metrics) *Trader {
	lm.SetPaperMode(cfg.PaperMode())
	return &Trader{
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		fetcher:  fetcher,
		strategy: strat,
		ledger:   lm,
		exchange: exch,
		notifier: tn,
		recorder: rec,
		metrics:  m,
		ctx:      ctx,
		log:      logging.Component("trader"),
	}
}

// Start registers the cron jobs and starts the scheduler.
func (t *Trader) Start() error {
	checkSpec := fmt.Sprintf("@every %dm", t.cfg.Scheduler.CheckIntervalMin)
	if _, err := t.cron.AddFunc(checkSpec, t.CheckMarket); err != nil {
		return fmt.Errorf("register market check: %w", err)
	}

	hour, min, err := t.cfg.DailyReportClock()
	if err != nil {
		return fmt.Errorf("parse daily report time: %w", err)
	}
	reportSpec := fmt.Sprintf("0 %d %d * * *", min, hour)
	if _, err := t.cron.AddFunc(reportSpec, t.SendDailyReport); err != nil {
		return fmt.Errorf("register daily report: %w", err)
	}

	t.cron.Start()
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
	t.log.Info().Int("interval_min", t.cfg.Scheduler.CheckIntervalMin).
		Str("daily_report", t.cfg.Scheduler.DailyReportTime).Msg("trader started")
	return nil
}

// Stop stops the cron scheduler.
func (t *Trader) Stop() {
	t.cron.Stop()
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
	t.log.Info().Msg("trader stopped")
}

// CheckMarket runs one full trading cycle. Safe to call concurrently with
// Telegram commands; cycles never overlap.
func (t *Trader) CheckMarket() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checkMarket()
}

func (t *Trader) checkMarket() {
	t.lastCheck = time.Now()
	t.metrics.CyclesTotal.Inc()
	symbol := t.cfg.Trading.Symbol
	t.log.Info().Str("symbol", symbol).Msg("checking market")

	bars, err := t.fetcher.FetchOHLCV(symbol, t.cfg.Trading.Timeframe, 150)
	if err != nil {
		t.metrics.FetchErrors.Inc()
		t.log.Error().Err(err).Msg("fetch bars")
		t.trySend(notifier.FormatError(fmt.Sprintf("Market check failed: %v", err)))
		return
	}
	ticker, err := t.fetcher.FetchTicker(symbol)
	if err != nil {
		t.metrics.FetchErrors.Inc()
		t.log.Error().Err(err).Msg("fetch ticker")
		return
	}
	currentPrice := ticker.Last

	pos, hasPosition := t.ledger.Position(symbol)
	signal, analysis, err := t.strategy.Analyze(bars, hasPosition, pos.EntryPrice)
	switch {
	case errors.Is(err, strategy.ErrInsufficientData):
		// Not enough history for a signal; the stop override below still runs.
		t.log.Warn().Int("bars", len(bars)).Msg("skipping signal, insufficient data")
	case err != nil:
		t.log.Error().Err(err).Msg("analyze")
		return
	default:
		t.metrics.ObserveSignal(signal)
		t.metrics.LastPrice.Set(currentPrice)
		t.metrics.LastRSI.Set(analysis.RSI)
		t.log.Info().Str("signal", string(signal)).Float64("price", currentPrice).
			Float64("rsi", analysis.RSI).Str("reason", analysis.Reason).Msg("cycle analyzed")
		t.trySend(notifier.FormatAnalysis(signal, analysis))

		switch signal {
		case model.SignalBuy:
			t.executeBuy(currentPrice, analysis.Reason)
		case model.SignalSell:
			t.executeSell(currentPrice, analysis.Reason)
		}
	}

	t.checkStopTakeProfit(currentPrice)
	t.updateGauges(currentPrice)
}

// executeBuy opens or grows the position, honoring the max position cap.
// Caller holds t.mu.
func (t *Trader) executeBuy(price float64, reason string) {
	symbol := t.cfg.Trading.Symbol
	amount := t.cfg.Trading.TradeAmount

	positionValue := 0.0
	if pos, ok := t.ledger.Position(symbol); ok {
		positionValue = pos.Quantity * price
	}
	if positionValue+amount > t.cfg.Trading.MaxPosition {
		t.log.Info().Float64("position_value", positionValue).
			Float64("max", t.cfg.Trading.MaxPosition).Msg("max position reached, skipping buy")
		return
	}

	if !t.cfg.PaperMode() {
		receipt, err := t.exchange.PlaceMarketOrder(symbol, "BUY", amount/price)
		if err != nil {
			t.log.Error().Err(err).Msg("live buy order failed")
			t.trySend(notifier.FormatError(fmt.Sprintf("Buy failed: %v", err)))
			return
		}
		t.log.Info().Str("order_id", receipt.OrderID).Float64("qty", receipt.Quantity).Msg("live buy filled")
		if receipt.Price > 0 {
			price = receipt.Price
		}
	}

	trade, err := t.ledger.Buy(symbol, price, amount, reason)
	if err != nil {
		t.log.Warn().Err(err).Msg("buy rejected")
		return
	}
	t.recordAndAlert(trade)
}

// executeSell closes the full position. Caller holds t.mu.
func (t *Trader) executeSell(price float64, reason string) {
	symbol := t.cfg.Trading.Symbol

	pos, ok := t.ledger.Position(symbol)
	if !ok {
		t.log.Debug().Msg("no position to sell")
		return
	}

	if !t.cfg.PaperMode() {
		receipt, err := t.exchange.PlaceMarketOrder(symbol, "SELL", pos.Quantity)
		if err != nil {
			t.log.Error().Err(err).Msg("live sell order failed")
			t.trySend(notifier.FormatError(fmt.Sprintf("Sell failed: %v", err)))
			return
		}
		t.log.Info().Str("order_id", receipt.OrderID).Float64("qty", receipt.Quantity).Msg("live sell filled")
		if receipt.Price > 0 {
			price = receipt.Price
		}
	}

	trade, err := t.ledger.Sell(symbol, price, 0, reason)
	if err != nil {
		t.log.Warn().Err(err).Msg("sell rejected")
		return
	}
	// The position is gone; a stale high-water mark must not leak into the next one.
	t.strategy.ResetMemory()
	t.recordAndAlert(trade)
}

// checkStopTakeProfit applies the hard stop-loss / take-profit override
// against the position's entry price, independent of the signal rules.
// Caller holds t.mu.
func (t *Trader) checkStopTakeProfit(currentPrice float64) {
	pos, ok := t.ledger.Position(t.cfg.Trading.Symbol)
	if !ok {
		return
	}

	pnlPct := (currentPrice - pos.EntryPrice) / pos.EntryPrice * 100
	switch {
	case pnlPct <= -t.cfg.Trading.StopLossPct:
		t.log.Warn().Float64("pnl_pct", pnlPct).Msg("stop loss triggered")
		t.executeSell(currentPrice, "Stop loss")
	case pnlPct >= t.cfg.Trading.TakeProfitPct:
		t.log.Info().Float64("pnl_pct", pnlPct).Msg("take profit triggered")
		t.executeSell(currentPrice, "Take profit")
	}
}

func (t *Trader) recordAndAlert(trade *model.Trade) {
	if err := t.recorder.RecordTrade(trade); err != nil {
		t.log.Error().Err(err).Msg("record trade")
	}
	t.metrics.ObserveTrade(trade)
	t.trySend(notifier.FormatTradeAlert(trade))
}

func (t *Trader) updateGauges(currentPrice float64) {
	summary := t.ledger.Summary(t.currentPrices(currentPrice))
	t.metrics.Balance.Set(summary.CurrentBalance)
	t.metrics.TotalValue.Set(summary.TotalValue)
}

func (t *Trader) currentPrices(price float64) map[string]float64 {
	if price <= 0 {
		return nil
	}
	return map[string]float64{t.cfg.Trading.Symbol: price}
}

// SendDailyReport sends the daily summary to Telegram and persists it.
func (t *Trader) SendDailyReport() {
	summary := t.summaryAtMarket()

	t.log.Info().Float64("pnl", summary.TotalPnL).Float64("pnl_pct", summary.TotalPnLPct).
		Msg("daily report")
	t.trySend(notifier.FormatDailyReport(summary))

	if err := t.recorder.SaveDailySummary(&recorder.DailySummary{
		Date:            time.Now().Format("2006-01-02"),
		StartingBalance: summary.InitialBalance,
		EndingBalance:   summary.TotalValue,
		TotalPnL:        summary.TotalPnL,
		TradeCount:      summary.TradeCount,
		WinCount:        summary.WinningTrades,
		LossCount:       summary.LosingTrades,
	}); err != nil {
		t.log.Error().Err(err).Msg("save daily summary")
	}
}

// summaryAtMarket values the ledger at the latest ticker price,
// falling back to an unpriced summary when the fetch fails.
func (t *Trader) summaryAtMarket() model.Summary {
	var prices map[string]float64
	if ticker, err := t.fetcher.FetchTicker(t.cfg.Trading.Symbol); err == nil {
		prices = t.currentPrices(ticker.Last)
	} else {
		t.log.Warn().Err(err).Msg("fetch ticker for summary")
	}
	return t.ledger.Summary(prices)
}

// Status reports the bot state for the health server.
func (t *Trader) Status() health.Status {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()

	return health.Status{
		Running:   running,
		PaperMode: t.cfg.PaperMode(),
		Symbol:    t.cfg.Trading.Symbol,
		Summary:   t.summaryAtMarket(),
	}
}

// HandleCommand processes a Telegram command and returns the reply text.
func (t *Trader) HandleCommand(command string) string {
	symbol := t.cfg.Trading.Symbol

	switch command {
	case "/start", "/help":
		return notifier.FormatHelp()

	case "/status":
		t.mu.Lock()
		running := t.running
		t.mu.Unlock()
		return notifier.FormatStatus(symbol, t.cfg.PaperMode(), running, t.summaryAtMarket())

	case "/price":
		ticker, err := t.fetcher.FetchTicker(symbol)
		if err != nil {
			return fmt.Sprintf("❌ Error: %v", err)
		}
		signal, analysis := t.strategy.Last()
		return notifier.FormatPrice(ticker, signal, analysis)

	case "/balance":
		return notifier.FormatBalance(t.summaryAtMarket())

	case "/trades":
		return notifier.FormatTrades(t.ledger.Trades(5))

	case "/report":
		return notifier.FormatDailyReport(t.summaryAtMarket())

	case "/buy":
		ticker, err := t.fetcher.FetchTicker(symbol)
		if err != nil {
			return fmt.Sprintf("❌ Error: %v", err)
		}
		t.mu.Lock()
		t.executeBuy(ticker.Last, "Manual buy")
		t.mu.Unlock()
		return fmt.Sprintf("🟢 Manual buy requested @ ₺%.2f", ticker.Last)

	case "/sell":
		ticker, err := t.fetcher.FetchTicker(symbol)
		if err != nil {
			return fmt.Sprintf("❌ Error: %v", err)
		}
		t.mu.Lock()
		t.executeSell(ticker.Last, "Manual sell")
		t.mu.Unlock()
		return fmt.Sprintf("🔴 Manual sell requested @ ₺%.2f", ticker.Last)

	default:
		return "Unknown command. Try /help"
	}
}

func (t *Trader) trySend(text string) {
	if err := t.notifier.SendWithRetry(t.ctx, text, 3); err != nil {
		t.log.Error().Err(err).Msg("send notification")
	}
}
