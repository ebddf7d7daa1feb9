package model

import "time"

// Snapshot holds every computed indicator for one bar. Values whose warm-up
// window has not completed are NaN.
type Snapshot struct {
	Time          time.Time
	Close         float64
	RSI           float64
	EMA           float64
	EMADistance   float64
	MACDLine      float64
	MACDSignal    float64
	MACDHistogram float64
	ATR           float64
}
