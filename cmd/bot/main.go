package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"TradeSentinel/internal/config"
	"TradeSentinel/internal/exchange"
	"TradeSentinel/internal/health"
	"TradeSentinel/internal/ledger"
	"TradeSentinel/internal/logging"
	"TradeSentinel/internal/market"
	"TradeSentinel/internal/metrics"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/strategy"
	"TradeSentinel/internal/trader"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	live := flag.Bool("live", false, "trade with real funds instead of the paper ledger")
	flag.Parse()

	// Secrets come from .env in development; ignore absence in production.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *live {
		paper := false
		cfg.Trading.PaperMode = &paper
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{Level: cfg.Logging.Level, File: cfg.Logging.File})
	log := logging.Component("main")
	log.Info().Str("symbol", cfg.Trading.Symbol).Bool("paper", cfg.PaperMode()).
		Msg("TradeSentinel starting")

	for _, dir := range []string{filepath.Dir(cfg.Database.SQLitePath), filepath.Dir(cfg.Ledger.StateFile)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("create data directory")
		}
	}

	fetcher := market.NewBinanceFetcher(cfg.Proxy, cfg.Exchange.Testnet)
	log.Info().Str("source", fetcher.Name()).Msg("market data source ready")

	strat := strategy.NewRSIEMA(strategy.Config{
		RSIPeriod:           cfg.Strategy.RSIPeriod,
		RSIOversold:         cfg.Strategy.RSIOversold,
		RSIOverbought:       cfg.Strategy.RSIOverbought,
		EMAPeriod:           cfg.Strategy.EMAPeriod,
		MinBars:             cfg.Strategy.MinBars,
		MACDFast:            cfg.Strategy.MACDFast,
		MACDSlow:            cfg.Strategy.MACDSlow,
		MACDSignal:          cfg.Strategy.MACDSignal,
		UseMACDConfirmation: cfg.UseMACDConfirmation(),
		TrailingStopPct:     cfg.Strategy.TrailingStopPct,
	})

	lm, err := ledger.NewManager(cfg.Ledger.StateFile, cfg.Trading.InitialBalance)
	if err != nil {
		log.Fatal().Err(err).Msg("init ledger")
	}

	var exch *exchange.Client
	if !cfg.PaperMode() {
		exch = exchange.NewClient(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.Testnet)
		if err := exch.Ping(); err != nil {
			log.Fatal().Err(err).Msg("exchange connection test")
		}
		log.Info().Bool("testnet", cfg.Exchange.Testnet).Msg("live trading enabled")
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, cfg.Telegram.Enabled)
	if tn.Enabled {
		if err := tn.TestConnection(); err != nil {
			log.Warn().Err(err).Msg("telegram connection test")
		}
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := trader.New(ctx, cfg, fetcher, strat, lm, exch, tn, rec, m)
	if err := tr.Start(); err != nil {
		log.Fatal().Err(err).Msg("start trader")
	}
	defer tr.Stop()

	hs := health.NewServer(cfg.Health.Port, tr.Status)
	hs.Start()

	go tn.StartPolling(ctx, tr.HandleCommand)

	if err := tn.SendWithRetry(ctx, notifier.FormatStartup(cfg.Trading.Symbol, cfg.PaperMode()), 3); err != nil {
		log.Warn().Err(err).Msg("startup notification")
	}

	// First cycle right away instead of waiting a full interval.
	go tr.CheckMarket()

	log.Info().Int("port", cfg.Health.Port).Msg("TradeSentinel is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := hs.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("health server shutdown")
	}
	log.Info().Msg("TradeSentinel stopped")
}
