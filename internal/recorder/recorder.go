package recorder

import (
	"time"

	"TradeSentinel/internal/model"
)

// DailySummary holds one end-of-day account snapshot.
type DailySummary struct {
	Date            string // YYYY-MM-DD
	StartingBalance float64
	EndingBalance   float64
	TotalPnL        float64
	TradeCount      int
	WinCount        int
	LossCount       int
}

// Statistics aggregates trade history across the full database.
type Statistics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPnL      float64
	BestTrade     float64
	WorstTrade    float64
}

// StoredTrade is a trade row read back from the database.
type StoredTrade struct {
	ID       int64
	TradeID  string
	Time     time.Time
	Symbol   string
	Side     string
	Price    float64
	Quantity float64
	Amount   float64
	PnL      float64
	PnLPct   float64
	Reason   string
	Paper    bool
}

// Recorder persists trade history for analysis and reporting.
type Recorder interface {
	RecordTrade(trade *model.Trade) error
	SaveDailySummary(summary *DailySummary) error
	RecentTrades(limit int) ([]StoredTrade, error)
	Statistics() (*Statistics, error)
	Close() error
}
