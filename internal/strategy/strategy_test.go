package strategy

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"TradeSentinel/internal/model"
)

func testAnalysis(price, rsi, ema, macd, macdSignal float64) *model.Analysis {
	return &model.Analysis{
		Price:         price,
		RSI:           rsi,
		EMA:           ema,
		EMADistance:   (price - ema) / ema * 100,
		MACD:          macd,
		MACDSignal:    macdSignal,
		MACDHistogram: macd - macdSignal,
		MACDBullish:   macd > macdSignal,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

func testBars(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time: start.Add(time.Duration(i) * time.Hour),
			Open: c, High: c, Low: c, Close: c, Volume: 1,
		}
	}
	return bars
}

func TestAnalyze_InsufficientData(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())

	signal, analysis, err := s.Analyze(testBars([]float64{100, 101, 102}), false, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if signal != model.SignalHold {
		t.Errorf("expected HOLD, got %s", signal)
	}
	if analysis != nil {
		t.Error("expected nil analysis on insufficient data")
	}
	if s.hasHighest {
		t.Error("trailing-stop memory must not be touched")
	}
	if _, last := s.Last(); last != nil {
		t.Error("last analysis must not be recorded")
	}
}

func TestAnalyze_NaNIndicatorsHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinBars = 10
	s := NewRSIEMA(cfg)

	// 20 bars is enough to pass the gate but not to warm up the 50-bar EMA.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	signal, analysis, err := s.Analyze(testBars(closes), true, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal != model.SignalHold {
		t.Errorf("NaN indicators must yield HOLD, got %s", signal)
	}
	if analysis == nil || !math.IsNaN(analysis.EMA) {
		t.Error("analysis should be returned with NaN values embedded")
	}
	if s.hasHighest {
		t.Error("trailing-stop memory must not be touched on NaN path")
	}
	if _, last := s.Last(); last == nil {
		t.Error("last analysis should be recorded even on NaN path")
	}
}

func TestDecide_BuySignal(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())

	a := testAnalysis(110, 25, 100, 1.0, 0.5)
	signal := s.decide(a, false, 0)

	if signal != model.SignalBuy {
		t.Fatalf("expected BUY, got %s", signal)
	}
	if !s.hasHighest || s.highestSinceBuy != 110 {
		t.Errorf("highest-since-buy should be seeded to 110, got %f", s.highestSinceBuy)
	}
	if !strings.Contains(a.Reason, "RSI oversold (25.0)") || !strings.Contains(a.Reason, "MACD bullish") {
		t.Errorf("unexpected reason %q", a.Reason)
	}
}

func TestDecide_BuyBlockedByMACD(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())

	// MACD confirmation is on and the line is below the signal.
	a := testAnalysis(110, 25, 100, 0.2, 0.5)
	if signal := s.decide(a, false, 0); signal != model.SignalHold {
		t.Fatalf("bearish MACD must block the buy, got %s", signal)
	}
	if s.hasHighest {
		t.Error("blocked buy must not seed trailing-stop memory")
	}
}

func TestDecide_BuyWithoutMACDConfirmation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseMACDConfirmation = false
	s := NewRSIEMA(cfg)

	a := testAnalysis(110, 25, 100, 0.2, 0.5)
	if signal := s.decide(a, false, 0); signal != model.SignalBuy {
		t.Fatalf("expected BUY with confirmation disabled, got %s", signal)
	}
	if strings.Contains(a.Reason, "MACD") {
		t.Errorf("reason should not mention MACD when confirmation is off: %q", a.Reason)
	}
}

func TestDecide_TrailingStopSell(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())
	s.highestSinceBuy = 120
	s.hasHighest = true

	a := testAnalysis(115, 50, 100, 1.0, 0.5)
	signal := s.decide(a, true, 100)

	if signal != model.SignalSell {
		t.Fatalf("expected SELL, got %s", signal)
	}
	if math.Abs(a.TrailingStop-116.4) > 1e-9 {
		t.Errorf("expected trailing stop 116.4, got %f", a.TrailingStop)
	}
	if !strings.Contains(a.Reason, "Trailing Stop hit") || !strings.Contains(a.Reason, "+15.0%") {
		t.Errorf("unexpected reason %q", a.Reason)
	}
	if s.hasHighest {
		t.Error("SELL must reset trailing-stop memory")
	}
}

func TestDecide_OverboughtBeatsTrailingStop(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())
	s.highestSinceBuy = 120
	s.hasHighest = true

	// Both the overbought rule and the trailing stop fire; RSI wins.
	a := testAnalysis(115, 75, 100, 1.0, 0.5)
	signal := s.decide(a, true, 100)

	if signal != model.SignalSell {
		t.Fatalf("expected SELL, got %s", signal)
	}
	if !strings.Contains(a.Reason, "RSI overbought (75.0 > 70)") {
		t.Errorf("priority order violated, reason %q", a.Reason)
	}
}

func TestDecide_EMABearishSell(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())

	// First held call seeds the tracker from the entry price, so the
	// trailing stop sits at 97 and a close of 98 stays above it.
	a := testAnalysis(98, 50, 100, 0.2, 0.5)
	signal := s.decide(a, true, 100)

	if signal != model.SignalSell {
		t.Fatalf("expected SELL, got %s", signal)
	}
	if a.Reason != "Price below EMA + MACD bearish" {
		t.Errorf("unexpected reason %q", a.Reason)
	}
}

func TestDecide_MACDEqualityIsNotBearish(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())
	s.highestSinceBuy = 100
	s.hasHighest = true

	a := testAnalysis(98, 50, 100, 0.5, 0.5)
	if signal := s.decide(a, true, 100); signal != model.SignalHold {
		t.Fatalf("MACD line equal to signal line must not count as bearish, got %s", signal)
	}
}

func TestDecide_SeedWithoutEntryPriceDisablesStopForOneBar(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())

	// Engine restarted mid-position with no entry price: the tracker
	// seeds from the current close, so the stop cannot trigger this bar.
	a := testAnalysis(90, 50, 80, 1.0, 0.5)
	signal := s.decide(a, true, 0)

	if signal != model.SignalHold {
		t.Fatalf("expected HOLD, got %s (%s)", signal, a.Reason)
	}
	if s.highestSinceBuy != 90 {
		t.Errorf("tracker should seed from close, got %f", s.highestSinceBuy)
	}
}

func TestDecide_HighWaterMarkRatchetsUpOnly(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())
	s.highestSinceBuy = 110
	s.hasHighest = true

	a := testAnalysis(112, 50, 100, 1.0, 0.5)
	s.decide(a, true, 100)
	if s.highestSinceBuy != 112 {
		t.Errorf("tracker should ratchet up to 112, got %f", s.highestSinceBuy)
	}

	a = testAnalysis(111, 50, 100, 1.0, 0.5)
	s.decide(a, true, 100)
	if s.highestSinceBuy != 112 {
		t.Errorf("tracker must never move down, got %f", s.highestSinceBuy)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())
	s.highestSinceBuy = 110
	s.hasHighest = true

	first := s.decide(testAnalysis(109, 50, 100, 1.0, 0.5), true, 100)
	second := s.decide(testAnalysis(109, 50, 100, 1.0, 0.5), true, 100)
	if first != second {
		t.Errorf("identical inputs must yield identical signals: %s vs %s", first, second)
	}
}

func TestResetMemory(t *testing.T) {
	s := NewRSIEMA(DefaultConfig())
	s.decide(testAnalysis(110, 25, 100, 1.0, 0.5), false, 0)
	if !s.hasHighest {
		t.Fatal("buy should seed the tracker")
	}
	s.ResetMemory()
	if s.hasHighest || s.highestSinceBuy != 0 {
		t.Error("reset should clear the tracker")
	}
}
