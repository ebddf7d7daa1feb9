// Package notifier delivers alerts and reports over the Telegram Bot API
// and relays chat commands back into the trading loop.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"TradeSentinel/internal/logging"
)

// TelegramNotifier sends messages via the Telegram Bot API. A disabled
// notifier swallows sends so callers never need to branch on it.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	Enabled  bool
	Client   *http.Client

	log zerolog.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// It disables itself when enabled is set but no token is configured.
func NewTelegramNotifier(botToken, chatID, proxyURL string, enabled bool) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	log := logging.Component("notifier")
	if enabled && botToken == "" {
		log.Warn().Msg("telegram enabled but token not configured, disabling")
		enabled = false
	}

	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		Enabled:  enabled,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log,
	}
}

// Send sends an HTML-formatted message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	if !t.Enabled {
		t.log.Debug().Str("text", truncate(text, 50)).Msg("telegram disabled, dropping message")
		return nil
	}

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			t.log.Warn().Err(err).Int("attempt", i+1).Dur("backoff", backoff).
				Msg("telegram send failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// TestConnection verifies the bot token against the getMe endpoint.
func (t *TelegramNotifier) TestConnection() error {
	if !t.Enabled {
		return fmt.Errorf("telegram not enabled")
	}

	resp, err := t.Client.Get(fmt.Sprintf("https://api.telegram.org/bot%s/getMe", t.BotToken))
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram read getMe: %w", err)
	}

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("telegram decode getMe: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram getMe failed: %s", string(body))
	}

	t.log.Info().Str("bot", "@"+result.Result.Username).Msg("telegram connected")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
