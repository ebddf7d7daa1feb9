package indicator

import (
	"math"
	"testing"
	"time"

	"TradeSentinel/internal/model"
)

func barsFromCloses(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func constantCloses(value float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = value
	}
	return closes
}

func TestEMASeries_WarmupAndSeed(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	ema := EMASeries(values, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(ema[i]) {
			t.Errorf("ema[%d] should be NaN during warm-up, got %f", i, ema[i])
		}
	}
	// Seed is the SMA of the first window.
	if ema[2] != 2.0 {
		t.Errorf("expected SMA seed 2.0 at index 2, got %f", ema[2])
	}
	// k = 2/(3+1) = 0.5, so ema[3] = (4-2)*0.5 + 2 = 3
	if math.Abs(ema[3]-3.0) > 1e-9 {
		t.Errorf("expected ema[3]=3.0, got %f", ema[3])
	}
}

func TestEMASeries_SkipsLeadingNaN(t *testing.T) {
	values := []float64{math.NaN(), math.NaN(), 10, 10, 10, 10}
	ema := EMASeries(values, 3)

	if !math.IsNaN(ema[3]) {
		t.Errorf("window should start at first valid value, ema[3]=%f", ema[3])
	}
	if math.Abs(ema[4]-10.0) > 1e-9 {
		t.Errorf("expected ema[4]=10.0, got %f", ema[4])
	}
}

func TestRSISeries_Bounds(t *testing.T) {
	rising := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 100 - float64(i)
	}

	up := RSISeries(rising, 14)
	down := RSISeries(falling, 14)

	for i := 0; i < 14; i++ {
		if !math.IsNaN(up[i]) {
			t.Errorf("rsi[%d] should be NaN during warm-up", i)
		}
	}
	if up[29] != 100.0 {
		t.Errorf("all-gain series should give RSI 100, got %f", up[29])
	}
	if down[29] != 0.0 {
		t.Errorf("all-loss series should give RSI 0, got %f", down[29])
	}
}

func TestRSISeries_MidpointForMixedMoves(t *testing.T) {
	// Perfectly alternating +1/-1 gives equal average gain and loss.
	closes := make([]float64, 40)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	rsi := RSISeries(closes, 14)
	if math.Abs(rsi[39]-50.0) > 5.0 {
		t.Errorf("alternating series should hover near RSI 50, got %f", rsi[39])
	}
}

func TestMACDSeries_FlatMarket(t *testing.T) {
	closes := constantCloses(250, 120)
	line, signal, hist := MACDSeries(closes, 12, 26, 9)

	last := len(closes) - 1
	if math.Abs(line[last]) > 1e-9 || math.Abs(signal[last]) > 1e-9 || math.Abs(hist[last]) > 1e-9 {
		t.Errorf("flat market should give zero MACD, got line=%f signal=%f hist=%f",
			line[last], signal[last], hist[last])
	}
}

func TestMACDSeries_UptrendIsPositive(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.01, float64(i))
	}
	line, signal, _ := MACDSeries(closes, 12, 26, 9)
	last := len(closes) - 1
	if line[last] <= 0 {
		t.Errorf("steady uptrend should give positive MACD line, got %f", line[last])
	}
	if math.IsNaN(signal[last]) {
		t.Error("signal line should be defined after warm-up")
	}
}

func TestATRSeries_ConstantRange(t *testing.T) {
	bars := make([]model.OHLCV, 40)
	for i := range bars {
		bars[i] = model.OHLCV{High: 105, Low: 95, Close: 100}
	}
	atr := ATRSeries(bars, 14)
	if math.Abs(atr[39]-10.0) > 1e-9 {
		t.Errorf("constant 10-point range should give ATR 10, got %f", atr[39])
	}
}

func TestCompute_SnapshotFields(t *testing.T) {
	bars := barsFromCloses(constantCloses(100, 120))
	snaps := Compute(bars, DefaultConfig())

	if len(snaps) != len(bars) {
		t.Fatalf("expected %d snapshots, got %d", len(bars), len(snaps))
	}
	last := snaps[len(snaps)-1]
	if last.Close != 100 {
		t.Errorf("expected close 100, got %f", last.Close)
	}
	if math.IsNaN(last.EMA) || math.Abs(last.EMA-100) > 1e-9 {
		t.Errorf("expected EMA 100 on flat series, got %f", last.EMA)
	}
	if math.Abs(last.EMADistance) > 1e-9 {
		t.Errorf("expected zero EMA distance on flat series, got %f", last.EMADistance)
	}
	if math.IsNaN(last.ATR) {
		t.Error("ATR should be defined after warm-up")
	}

	// Early snapshots must carry NaN, not zero.
	if !math.IsNaN(snaps[0].RSI) || !math.IsNaN(snaps[0].MACDSignal) {
		t.Error("warm-up snapshots should carry NaN indicator values")
	}
}
