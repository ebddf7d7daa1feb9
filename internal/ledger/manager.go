// Package ledger implements the paper-trading account: cash balance,
// open positions and an append-only trade log, persisted as JSON.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"TradeSentinel/internal/logging"
	"TradeSentinel/internal/model"
)

var (
	// ErrInsufficientBalance is returned when a buy exceeds the cash balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNoPosition is returned when selling a symbol with no open position.
	ErrNoPosition = errors.New("no open position")
	// ErrInsufficientQuantity is returned when selling more than is held.
	ErrInsufficientQuantity = errors.New("insufficient position quantity")
)

// Manager handles paper-ledger operations with concurrency safety.
// A failed precondition never mutates state.
type Manager struct {
	mu       sync.Mutex
	state    *model.LedgerState
	filePath string
	paper    bool
	log      zerolog.Logger
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, initialBalance float64) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	// Initialize if fresh state
	if state.InitialBalance == 0 {
		state.InitialBalance = initialBalance
		state.Balance = initialBalance
	}
	if state.Positions == nil {
		state.Positions = make(map[string]*model.Position)
	}

	m := &Manager{state: state, filePath: filePath, paper: true, log: logging.Component("ledger")}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetPaperMode marks subsequent trades as paper or live.
func (m *Manager) SetPaperMode(paper bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paper = paper
}

// Buy debits amount from the balance and opens or grows a position.
// Buying into an existing position re-averages its entry price.
func (m *Manager) Buy(symbol string, price, amount float64, reason string) (*model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount > m.state.Balance {
		return nil, ErrInsufficientBalance
	}

	quantity := amount / price
	m.state.Balance -= amount

	if pos, ok := m.state.Positions[symbol]; ok {
		totalQty := pos.Quantity + quantity
		pos.EntryPrice = (pos.EntryPrice*pos.Quantity + price*quantity) / totalQty
		pos.Quantity = totalQty
	} else {
		m.state.Positions[symbol] = &model.Position{
			Symbol:     symbol,
			Quantity:   quantity,
			EntryPrice: price,
			EntryTime:  time.Now(),
		}
	}

	trade := model.Trade{
		ID:       uuid.NewString(),
		Type:     model.SignalBuy,
		Symbol:   symbol,
		Price:    price,
		Quantity: quantity,
		Amount:   amount,
		Reason:   reason,
		Paper:    m.paper,
		Time:     time.Now(),
	}
	m.state.Trades = append(m.state.Trades, trade)

	if err := m.save(); err != nil {
		m.log.Error().Err(err).Msg("failed to save ledger state")
	}
	m.log.Info().Str("symbol", symbol).Float64("price", price).
		Float64("quantity", quantity).Msg("paper buy executed")
	return &trade, nil
}

// Sell credits the proceeds of quantity units at price and realizes PnL
// against the position's average entry. Pass quantity <= 0 to close the
// full position. Selling the entire quantity removes the position; a
// partial sell keeps the original entry price for the remainder.
func (m *Manager) Sell(symbol string, price, quantity float64, reason string) (*model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.state.Positions[symbol]
	if !ok {
		return nil, ErrNoPosition
	}

	sellQty := quantity
	if sellQty <= 0 {
		sellQty = pos.Quantity
	}
	if sellQty > pos.Quantity {
		return nil, ErrInsufficientQuantity
	}

	m.state.Balance += sellQty * price
	pnl := (price - pos.EntryPrice) * sellQty
	pnlPct := (price - pos.EntryPrice) / pos.EntryPrice * 100

	if sellQty >= pos.Quantity {
		delete(m.state.Positions, symbol)
	} else {
		pos.Quantity -= sellQty
	}

	trade := model.Trade{
		ID:       uuid.NewString(),
		Type:     model.SignalSell,
		Symbol:   symbol,
		Price:    price,
		Quantity: sellQty,
		Amount:   sellQty * price,
		PnL:      pnl,
		PnLPct:   pnlPct,
		Reason:   reason,
		Paper:    m.paper,
		Time:     time.Now(),
	}
	m.state.Trades = append(m.state.Trades, trade)

	if err := m.save(); err != nil {
		m.log.Error().Err(err).Msg("failed to save ledger state")
	}
	m.log.Info().Str("symbol", symbol).Float64("price", price).
		Float64("quantity", sellQty).Float64("pnl", pnl).Msg("paper sell executed")
	return &trade, nil
}

// Position returns a copy of the open position for symbol, if any.
func (m *Manager) Position(symbol string) (model.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.state.Positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// Balance returns the current cash balance.
func (m *Manager) Balance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Balance
}

// GetState returns a deep copy of the current ledger state.
func (m *Manager) GetState() model.LedgerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := *m.state
	state.Positions = make(map[string]*model.Position, len(m.state.Positions))
	for sym, pos := range m.state.Positions {
		p := *pos
		state.Positions[sym] = &p
	}
	state.Trades = append([]model.Trade(nil), m.state.Trades...)
	return state
}

// Trades returns the most recent n trades, newest last.
func (m *Manager) Trades(n int) []model.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()

	trades := m.state.Trades
	if n > 0 && len(trades) > n {
		trades = trades[len(trades)-n:]
	}
	return append([]model.Trade(nil), trades...)
}

// Summary values the account at the given current prices. Positions whose
// symbol is missing from currentPrices are excluded from the valuation,
// not counted as zero. Win/loss counts consider sell trades only.
func (m *Manager) Summary(currentPrices map[string]float64) model.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	totalValue := m.state.Balance
	positions := make(map[string]model.Position, len(m.state.Positions))
	for sym, pos := range m.state.Positions {
		positions[sym] = *pos
		if price, ok := currentPrices[sym]; ok {
			totalValue += pos.Quantity * price
		}
	}

	var wins, losses int
	for _, t := range m.state.Trades {
		if t.Type != model.SignalSell {
			continue
		}
		switch {
		case t.PnL > 0:
			wins++
		case t.PnL < 0:
			losses++
		}
	}

	totalPnL := totalValue - m.state.InitialBalance
	return model.Summary{
		InitialBalance: m.state.InitialBalance,
		CurrentBalance: m.state.Balance,
		TotalValue:     totalValue,
		TotalPnL:       totalPnL,
		TotalPnLPct:    totalPnL / m.state.InitialBalance * 100,
		Positions:      positions,
		TradeCount:     len(m.state.Trades),
		WinningTrades:  wins,
		LosingTrades:   losses,
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
