package market

import (
	"time"

	"TradeSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchOHLCV(_ string, _ string, limit int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return GenerateMockBars(m.Price, limit), nil
}

func (m *MockFetcher) FetchTicker(symbol string) (*model.Ticker, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	price := m.Price
	if len(m.Bars) > 0 {
		price = m.Bars[len(m.Bars)-1].Close
	}
	return &model.Ticker{
		Symbol: symbol,
		Last:   price,
		Bid:    price * 0.9995,
		Ask:    price * 1.0005,
		Time:   time.Now(),
	}, nil
}

// GenerateMockBars produces a gentle drift around a base price, hourly spaced.
func GenerateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().Add(-time.Duration(count-i) * time.Hour),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
