package indicator

import (
	"math"

	"TradeSentinel/internal/model"
)

// Config holds the indicator periods.
type Config struct {
	RSIPeriod  int
	EMAPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ATRPeriod  int
}

// DefaultConfig returns the standard periods.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:  14,
		EMAPeriod:  50,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ATRPeriod:  14,
	}
}

var nan = math.NaN()

// Compute derives one Snapshot per bar. Values inside an indicator's warm-up
// window are NaN and stay NaN in everything derived from them; the caller is
// responsible for checking presence before acting on a snapshot.
func Compute(bars []model.OHLCV, cfg Config) []model.Snapshot {
	n := len(bars)
	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	rsi := RSISeries(closes, cfg.RSIPeriod)
	ema := EMASeries(closes, cfg.EMAPeriod)
	macdLine, macdSignal, macdHist := MACDSeries(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	atr := ATRSeries(bars, cfg.ATRPeriod)

	snaps := make([]model.Snapshot, n)
	for i := range bars {
		dist := nan
		if !math.IsNaN(ema[i]) && ema[i] != 0 {
			dist = (closes[i] - ema[i]) / ema[i] * 100
		}
		snaps[i] = model.Snapshot{
			Time:          bars[i].Time,
			Close:         closes[i],
			RSI:           rsi[i],
			EMA:           ema[i],
			EMADistance:   dist,
			MACDLine:      macdLine[i],
			MACDSignal:    macdSignal[i],
			MACDHistogram: macdHist[i],
			ATR:           atr[i],
		}
	}
	return snaps
}

// EMASeries computes an exponential moving average seeded with the simple
// average of the first full window. Leading NaNs in the input shift the
// window start instead of poisoning the whole series.
func EMASeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	start := firstValid(values)
	if start < 0 || len(values)-start < period {
		return out
	}

	seed := 0.0
	for i := start; i < start+period; i++ {
		seed += values[i]
	}
	seed /= float64(period)

	k := 2.0 / float64(period+1)
	idx := start + period - 1
	out[idx] = seed
	for i := idx + 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSISeries computes Wilder-smoothed RSI. The first period entries are NaN.
func RSISeries(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// MACDSeries returns the MACD line (fast EMA - slow EMA), its signal line
// (EMA of the MACD line), and the histogram (line - signal).
func MACDSeries(closes []float64, fast, slow, signalPeriod int) (line, signal, histogram []float64) {
	n := len(closes)
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)

	line = nanSlice(n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}

	signal = EMASeries(line, signalPeriod)

	histogram = nanSlice(n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(line[i]) && !math.IsNaN(signal[i]) {
			histogram[i] = line[i] - signal[i]
		}
	}
	return line, signal, histogram
}

// ATRSeries computes the Wilder-smoothed average true range.
func ATRSeries(bars []model.OHLCV, period int) []float64 {
	out := nanSlice(len(bars))
	if period <= 0 || len(bars) < period+1 {
		return out
	}

	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)

	p := float64(period)
	for i := period + 1; i < len(bars); i++ {
		out[i] = (out[i-1]*(p-1) + tr[i]) / p
	}
	return out
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = nan
	}
	return s
}

func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
