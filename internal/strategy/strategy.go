// Package strategy implements the RSI + EMA + MACD signal engine with a
// trailing stop-loss overlay.
//
// Buy signal:
//   - RSI below the oversold threshold
//   - Price above EMA (uptrend confirmation)
//   - MACD line above signal line (momentum confirmation, optional)
//
// Sell signal, first match wins:
//   - RSI above the overbought threshold
//   - Trailing stop-loss triggered
//   - Price below EMA with MACD bearish
package strategy

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"TradeSentinel/internal/indicator"
	"TradeSentinel/internal/logging"
	"TradeSentinel/internal/model"
)

// ErrInsufficientData is returned when fewer bars than MinBars are supplied.
// The caller should skip the cycle; no strategy state is touched.
var ErrInsufficientData = errors.New("insufficient data for analysis")

// Config holds the tunable parameters of the signal engine.
type Config struct {
	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64
	EMAPeriod     int
	MinBars       int

	MACDFast            int
	MACDSlow            int
	MACDSignal          int
	UseMACDConfirmation bool

	TrailingStopPct float64
}

// DefaultConfig returns the parameters the engine ships with.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:           14,
		RSIOversold:         30,
		RSIOverbought:       70,
		EMAPeriod:           50,
		MinBars:             100,
		MACDFast:            12,
		MACDSlow:            26,
		MACDSignal:          9,
		UseMACDConfirmation: true,
		TrailingStopPct:     3.0,
	}
}

// RSIEMAStrategy evaluates bar sequences into BUY/SELL/HOLD signals.
// It carries one piece of cross-call state: the highest price observed
// since the last BUY, used to ratchet the trailing stop. One instance
// serves one symbol; Analyze is safe for concurrent callers.
type RSIEMAStrategy struct {
	cfg Config
	log zerolog.Logger

	mu              sync.Mutex
	highestSinceBuy float64
	hasHighest      bool
	lastSignal      model.Signal
	lastAnalysis    *model.Analysis
}

// NewRSIEMA creates a signal engine with the given parameters.
func NewRSIEMA(cfg Config) *RSIEMAStrategy {
	return &RSIEMAStrategy{
		cfg:        cfg,
		log:        logging.Component("strategy"),
		lastSignal: model.SignalHold,
	}
}

// Analyze computes indicators over bars and derives a trading signal.
// hasPosition tells the engine whether a position is currently open;
// entryPrice is its average cost (pass 0 when unknown). The returned
// analysis embeds the indicator values behind the decision; it may carry
// NaN fields during indicator warm-up, in which case the signal is HOLD.
func (s *RSIEMAStrategy) Analyze(bars []model.OHLCV, hasPosition bool, entryPrice float64) (model.Signal, *model.Analysis, error) {
	if len(bars) < s.cfg.MinBars {
		s.log.Warn().Int("bars", len(bars)).Int("need", s.cfg.MinBars).Msg("not enough data")
		return model.SignalHold, nil, ErrInsufficientData
	}

	snaps := indicator.Compute(bars, indicator.Config{
		RSIPeriod:  s.cfg.RSIPeriod,
		EMAPeriod:  s.cfg.EMAPeriod,
		MACDFast:   s.cfg.MACDFast,
		MACDSlow:   s.cfg.MACDSlow,
		MACDSignal: s.cfg.MACDSignal,
		ATRPeriod:  14,
	})
	current := snaps[len(snaps)-1]

	analysis := &model.Analysis{
		Price:         current.Close,
		RSI:           current.RSI,
		EMA:           current.EMA,
		EMADistance:   current.EMADistance,
		MACD:          current.MACDLine,
		MACDSignal:    current.MACDSignal,
		MACDHistogram: current.MACDHistogram,
		MACDBullish:   current.MACDLine > current.MACDSignal,
		ATR:           current.ATR,
		RSIOversold:   s.cfg.RSIOversold,
		RSIOverbought: s.cfg.RSIOverbought,
		HasPosition:   hasPosition,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAnalysis = analysis

	if math.IsNaN(current.RSI) || math.IsNaN(current.EMA) || math.IsNaN(current.MACDLine) {
		s.log.Warn().Msg("indicators contain NaN values")
		return model.SignalHold, analysis, nil
	}

	signal := s.decide(analysis, hasPosition, entryPrice)
	s.lastSignal = signal
	return signal, analysis, nil
}

// decide applies the buy/sell rules and updates the trailing-stop memory.
// Caller holds s.mu.
func (s *RSIEMAStrategy) decide(a *model.Analysis, hasPosition bool, entryPrice float64) model.Signal {
	signal := model.SignalHold
	close := a.Price

	if !hasPosition {
		rsiCondition := a.RSI < s.cfg.RSIOversold
		emaCondition := close > a.EMA
		macdCondition := a.MACDBullish || !s.cfg.UseMACDConfirmation

		if rsiCondition && emaCondition && macdCondition {
			signal = model.SignalBuy
			s.highestSinceBuy = close
			s.hasHighest = true

			macdText := ""
			if s.cfg.UseMACDConfirmation {
				macdText = " + MACD bullish"
			}
			a.Reason = fmt.Sprintf("RSI oversold (%.1f) + Price>EMA%s", a.RSI, macdText)
			s.log.Info().Str("reason", a.Reason).Msg("BUY signal")
		}
	}

	if hasPosition {
		if !s.hasHighest {
			if entryPrice > 0 {
				s.highestSinceBuy = entryPrice
			} else {
				s.highestSinceBuy = close
			}
			s.hasHighest = true
		} else {
			s.highestSinceBuy = math.Max(s.highestSinceBuy, close)
		}

		trailingStop := s.highestSinceBuy * (1 - s.cfg.TrailingStopPct/100)
		a.TrailingStop = trailingStop
		a.HighestSinceBuy = s.highestSinceBuy

		switch {
		case a.RSI > s.cfg.RSIOverbought:
			signal = model.SignalSell
			a.Reason = fmt.Sprintf("RSI overbought (%.1f > %g)", a.RSI, s.cfg.RSIOverbought)
			s.log.Info().Str("reason", a.Reason).Msg("SELL signal")
			s.hasHighest = false

		case close < trailingStop:
			signal = model.SignalSell
			base := entryPrice
			if base <= 0 {
				base = s.highestSinceBuy
			}
			pnlPct := (close - base) / base * 100
			a.Reason = fmt.Sprintf("Trailing Stop hit (₺%s) | PnL: %+.1f%%",
				humanize.CommafWithDigits(trailingStop, 0), pnlPct)
			s.log.Info().Str("reason", a.Reason).Msg("SELL signal")
			s.hasHighest = false

		case close < a.EMA && a.MACD < a.MACDSignal:
			signal = model.SignalSell
			a.Reason = "Price below EMA + MACD bearish"
			s.log.Info().Str("reason", a.Reason).Msg("SELL signal")
			s.hasHighest = false
		}
	}

	if signal == model.SignalHold {
		a.Reason = "No clear signal"
	}
	return signal
}

// Last returns the most recent signal and analysis for status queries.
// The analysis is nil until the first successful Analyze call.
func (s *RSIEMAStrategy) Last() (model.Signal, *model.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSignal, s.lastAnalysis
}

// ResetMemory clears the trailing-stop tracker. Called after manual sells
// so a stale high water mark does not survive into the next position.
func (s *RSIEMAStrategy) ResetMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasHighest = false
	s.highestSinceBuy = 0
}
