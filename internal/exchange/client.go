// Package exchange holds the signed Binance client used for live order
// execution. Paper mode never touches this package.
package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"TradeSentinel/internal/market"
)

// OrderReceipt describes a filled market order.
type OrderReceipt struct {
	OrderID     string
	Symbol      string
	Side        string
	Quantity    float64
	QuoteAmount float64
	Price       float64
	Time        time.Time
}

// Client signs and submits requests against the Binance trading API.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a signed Binance client. With testnet set, orders go
// against testnet.binance.vision instead of the production exchange.
func NewClient(apiKey, apiSecret string, testnet bool) *Client {
	baseURL := "https://api.binance.com"
	if testnet {
		baseURL = "https://testnet.binance.vision"
	}
	return &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) sign(params string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(params))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) do(method, path string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("signature", c.sign(params.Encode()))

	req, err := http.NewRequest(method, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance request: %w", err)
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

// Ping checks API connectivity without authentication.
func (c *Client) Ping() error {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v3/ping")
	if err != nil {
		return fmt.Errorf("binance ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("binance ping: status %d", resp.StatusCode)
	}
	return nil
}

// PlaceMarketOrder submits a MARKET order. Side is "BUY" or "SELL";
// quantity is in base-asset units.
func (c *Client) PlaceMarketOrder(symbol, side string, quantity float64) (*OrderReceipt, error) {
	params := url.Values{}
	params.Set("symbol", market.MarketSymbol(symbol))
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', 8, 64))

	body, err := c.do(http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}

	var raw struct {
		OrderID             int64  `json:"orderId"`
		ExecutedQty         string `json:"executedQty"`
		CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
		Fills               []struct {
			Price string `json:"price"`
			Qty   string `json:"qty"`
		} `json:"fills"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("binance decode order: %w", err)
	}

	executed, _ := strconv.ParseFloat(raw.ExecutedQty, 64)
	quoteAmount, _ := strconv.ParseFloat(raw.CummulativeQuoteQty, 64)

	// Average fill price; market orders can fill across several levels.
	price := 0.0
	if executed > 0 && quoteAmount > 0 {
		price = quoteAmount / executed
	} else if len(raw.Fills) > 0 {
		price, _ = strconv.ParseFloat(raw.Fills[0].Price, 64)
	}

	return &OrderReceipt{
		OrderID:     strconv.FormatInt(raw.OrderID, 10),
		Symbol:      symbol,
		Side:        side,
		Quantity:    executed,
		QuoteAmount: quoteAmount,
		Price:       price,
		Time:        time.Now(),
	}, nil
}

// AccountBalance returns non-zero asset balances (free + locked).
func (c *Client) AccountBalance() (map[string]float64, error) {
	body, err := c.do(http.MethodGet, "/api/v3/account", url.Values{})
	if err != nil {
		return nil, err
	}

	var account struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("binance decode account: %w", err)
	}

	balances := make(map[string]float64)
	for _, b := range account.Balances {
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		if total := free + locked; total > 0 {
			balances[b.Asset] = total
		}
	}
	return balances, nil
}
