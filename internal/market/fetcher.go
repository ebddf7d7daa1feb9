// Package market provides price-bar and ticker sources for the trading loop.
package market

import "TradeSentinel/internal/model"

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchOHLCV(symbol, timeframe string, limit int) ([]model.OHLCV, error)
	FetchTicker(symbol string) (*model.Ticker, error)
	Name() string
}
