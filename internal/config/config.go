package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Exchange struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Testnet   bool   `yaml:"testnet"`
	} `yaml:"exchange"`
	Trading struct {
		Symbol         string  `yaml:"symbol"`
		Timeframe      string  `yaml:"timeframe"`
		TradeAmount    float64 `yaml:"trade_amount"`
		InitialBalance float64 `yaml:"initial_balance"`
		MaxPosition    float64 `yaml:"max_position"`
		StopLossPct    float64 `yaml:"stop_loss_pct"`
		TakeProfitPct  float64 `yaml:"take_profit_pct"`
		PaperMode      *bool   `yaml:"paper_mode"`
	} `yaml:"trading"`
	Strategy struct {
		RSIPeriod           int     `yaml:"rsi_period"`
		RSIOversold         float64 `yaml:"rsi_oversold"`
		RSIOverbought       float64 `yaml:"rsi_overbought"`
		EMAPeriod           int     `yaml:"ema_period"`
		MinBars             int     `yaml:"min_bars"`
		MACDFast            int     `yaml:"macd_fast"`
		MACDSlow            int     `yaml:"macd_slow"`
		MACDSignal          int     `yaml:"macd_signal"`
		UseMACDConfirmation *bool   `yaml:"use_macd_confirmation"`
		TrailingStopPct     float64 `yaml:"trailing_stop_pct"`
	} `yaml:"strategy"`
	Scheduler struct {
		CheckIntervalMin int    `yaml:"check_interval_min"`
		DailyReportTime  string `yaml:"daily_report_time"` // "HH:MM"
	} `yaml:"scheduler"`
	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Ledger struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"ledger"`
	Health struct {
		Port int `yaml:"port"`
	} `yaml:"health"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// PaperMode reports whether the bot runs against the paper ledger.
// Defaults to true when unset; live trading is always opt-in.
func (c *Config) PaperMode() bool {
	return c.Trading.PaperMode == nil || *c.Trading.PaperMode
}

// UseMACDConfirmation defaults to true when unset.
func (c *Config) UseMACDConfirmation() bool {
	return c.Strategy.UseMACDConfirmation == nil || *c.Strategy.UseMACDConfirmation
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
		cfg.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}
	if v := os.Getenv("TRADING_SYMBOL"); v != "" {
		cfg.Trading.Symbol = v
	}
	if v := os.Getenv("PAPER_MODE"); v != "" {
		paper := v == "true"
		cfg.Trading.PaperMode = &paper
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("HEALTH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Health.Port = p
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Trading.Symbol == "" {
		c.Trading.Symbol = "BTC/TRY"
	}
	if c.Trading.Timeframe == "" {
		c.Trading.Timeframe = "1h"
	}
	if c.Trading.TradeAmount == 0 {
		c.Trading.TradeAmount = 100
	}
	if c.Trading.InitialBalance == 0 {
		c.Trading.InitialBalance = 1000
	}
	if c.Trading.MaxPosition == 0 {
		c.Trading.MaxPosition = 500
	}
	if c.Trading.StopLossPct == 0 {
		c.Trading.StopLossPct = 5.0
	}
	if c.Trading.TakeProfitPct == 0 {
		c.Trading.TakeProfitPct = 10.0
	}
	if c.Strategy.RSIPeriod == 0 {
		c.Strategy.RSIPeriod = 14
	}
	if c.Strategy.RSIOversold == 0 {
		c.Strategy.RSIOversold = 30
	}
	if c.Strategy.RSIOverbought == 0 {
		c.Strategy.RSIOverbought = 70
	}
	if c.Strategy.EMAPeriod == 0 {
		c.Strategy.EMAPeriod = 50
	}
	if c.Strategy.MinBars == 0 {
		c.Strategy.MinBars = 100
	}
	if c.Strategy.MACDFast == 0 {
		c.Strategy.MACDFast = 12
	}
	if c.Strategy.MACDSlow == 0 {
		c.Strategy.MACDSlow = 26
	}
	if c.Strategy.MACDSignal == 0 {
		c.Strategy.MACDSignal = 9
	}
	if c.Strategy.TrailingStopPct == 0 {
		c.Strategy.TrailingStopPct = 3.0
	}
	if c.Scheduler.CheckIntervalMin == 0 {
		c.Scheduler.CheckIntervalMin = 15
	}
	if c.Scheduler.DailyReportTime == "" {
		c.Scheduler.DailyReportTime = "20:00"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/trades.db"
	}
	if c.Ledger.StateFile == "" {
		c.Ledger.StateFile = "data/ledger_state.json"
	}
	if c.Health.Port == 0 {
		c.Health.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File == "" {
		c.Logging.File = "logs/trading.log"
	}
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if c.Trading.TradeAmount <= 0 {
		return fmt.Errorf("trading.trade_amount must be positive")
	}
	if c.Trading.InitialBalance <= 0 {
		return fmt.Errorf("trading.initial_balance must be positive")
	}
	if c.Strategy.MACDFast >= c.Strategy.MACDSlow {
		return fmt.Errorf("strategy.macd_fast must be less than macd_slow")
	}
	if c.Strategy.MinBars < c.Strategy.EMAPeriod {
		return fmt.Errorf("strategy.min_bars must cover the EMA period")
	}
	if c.Strategy.TrailingStopPct <= 0 || c.Strategy.TrailingStopPct >= 100 {
		return fmt.Errorf("strategy.trailing_stop_pct must be in (0, 100)")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	if c.Telegram.Enabled && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
	}
	if !c.PaperMode() && c.Exchange.APIKey == "" {
		return fmt.Errorf("exchange.api_key is required for live trading")
	}
	if _, _, err := c.DailyReportClock(); err != nil {
		return err
	}
	return nil
}

// DailyReportClock parses scheduler.daily_report_time into hour and minute.
func (c *Config) DailyReportClock() (hour, minute int, err error) {
	if _, err := fmt.Sscanf(c.Scheduler.DailyReportTime, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("scheduler.daily_report_time %q: want HH:MM", c.Scheduler.DailyReportTime)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("scheduler.daily_report_time %q out of range", c.Scheduler.DailyReportTime)
	}
	return hour, minute, nil
}
