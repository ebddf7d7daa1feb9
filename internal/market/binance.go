package market

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"TradeSentinel/internal/model"
)

// BinanceFetcher implements Fetcher using the Binance public REST API.
// Only unauthenticated market-data endpoints are used here; signed order
// endpoints live in the exchange package.
type BinanceFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewBinanceFetcher creates a Binance market-data fetcher. An optional
// proxy URL is honored for hosts where api.binance.com is unreachable.
func NewBinanceFetcher(proxyURL string, testnet bool) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	baseURL := "https://api.binance.com"
	if testnet {
		baseURL = "https://testnet.binance.vision"
	}
	return &BinanceFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: baseURL,
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// MarketSymbol converts a "BASE/QUOTE" pair into Binance's concatenated
// form, e.g. "BTC/TRY" -> "BTCTRY". Already-concatenated symbols pass through.
func MarketSymbol(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
}

func (f *BinanceFetcher) get(path string, params url.Values) ([]byte, error) {
	u := f.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	resp, err := f.Client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("binance fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// FetchOHLCV returns up to limit closed candles for the given timeframe
// (Binance interval notation: "15m", "1h", "4h", "1d"), oldest first.
func (f *BinanceFetcher) FetchOHLCV(symbol, timeframe string, limit int) ([]model.OHLCV, error) {
	params := url.Values{}
	params.Set("symbol", MarketSymbol(symbol))
	params.Set("interval", timeframe)
	params.Set("limit", strconv.Itoa(limit))

	body, err := f.get("/api/v3/klines", params)
	if err != nil {
		return nil, err
	}

	// Each kline is a heterogeneous array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("binance decode klines: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("binance: no kline data for %s", symbol)
	}

	bars := make([]model.OHLCV, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		ts, ok := k[0].(float64)
		if !ok {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(int64(ts)),
			Open:   parsePrice(k[1]),
			High:   parsePrice(k[2]),
			Low:    parsePrice(k[3]),
			Close:  parsePrice(k[4]),
			Volume: parsePrice(k[5]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchTicker returns the rolling 24h ticker for the symbol.
func (f *BinanceFetcher) FetchTicker(symbol string) (*model.Ticker, error) {
	params := url.Values{}
	params.Set("symbol", MarketSymbol(symbol))

	body, err := f.get("/api/v3/ticker/24hr", params)
	if err != nil {
		return nil, err
	}

	var raw struct {
		LastPrice          string `json:"lastPrice"`
		BidPrice           string `json:"bidPrice"`
		AskPrice           string `json:"askPrice"`
		Volume             string `json:"volume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("binance decode ticker: %w", err)
	}

	last, err := strconv.ParseFloat(raw.LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("binance parse last price: %w", err)
	}
	bid, _ := strconv.ParseFloat(raw.BidPrice, 64)
	ask, _ := strconv.ParseFloat(raw.AskPrice, 64)
	volume, _ := strconv.ParseFloat(raw.Volume, 64)
	change, _ := strconv.ParseFloat(raw.PriceChangePercent, 64)

	return &model.Ticker{
		Symbol:    symbol,
		Last:      last,
		Bid:       bid,
		Ask:       ask,
		Volume:    volume,
		Change24h: change,
		Time:      time.Now(),
	}, nil
}

func parsePrice(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
