package model

// Signal is the trading decision produced by the strategy engine.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Analysis carries the indicator values and the reasoning behind a signal.
// Indicator fields hold NaN while their warm-up window is incomplete; callers
// must check with math.IsNaN before acting on them.
type Analysis struct {
	Price         float64
	RSI           float64
	EMA           float64
	EMADistance   float64 // percent distance of close from EMA
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	MACDBullish   bool
	ATR           float64
	RSIOversold   float64
	RSIOverbought float64
	HasPosition   bool

	// Set only while a position is held.
	TrailingStop    float64
	HighestSinceBuy float64

	Reason string
}
