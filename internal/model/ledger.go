package model

import "time"

// Position is an open holding in a single asset. Entry price is the
// volume-weighted average of all buys since the position was opened.
type Position struct {
	Symbol     string    `json:"symbol"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
}

// Trade is one executed order. SELL trades carry realized PnL; BUY trades
// leave the PnL fields zero. Trades are append-only.
type Trade struct {
	ID       string    `json:"id"`
	Type     Signal    `json:"type"` // SignalBuy or SignalSell
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Amount   float64   `json:"amount"`
	PnL      float64   `json:"pnl,omitempty"`
	PnLPct   float64   `json:"pnl_pct,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Paper    bool      `json:"paper_mode"`
	Time     time.Time `json:"time"`
}

// LedgerState is the full paper-trading book: cash, open positions, and the
// trade log. It is JSON-serializable so the ledger survives restarts.
type LedgerState struct {
	Balance        float64              `json:"balance"`
	InitialBalance float64              `json:"initial_balance"`
	Positions      map[string]*Position `json:"positions"`
	Trades         []Trade              `json:"trades"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Summary is a point-in-time valuation of the ledger.
type Summary struct {
	InitialBalance float64
	CurrentBalance float64
	TotalValue     float64
	TotalPnL       float64
	TotalPnLPct    float64
	Positions      map[string]Position
	TradeCount     int
	WinningTrades  int
	LosingTrades   int
}
