package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"TradeSentinel/internal/model"
)

const divider = "━━━━━━━━━━━━━━━━━\n"

func lira(v float64) string {
	return "₺" + humanize.CommafWithDigits(v, 2)
}

func liraSigned(v float64) string {
	if v >= 0 {
		return "₺+" + humanize.CommafWithDigits(v, 2)
	}
	return "₺" + humanize.CommafWithDigits(v, 2)
}

// FormatTradeAlert formats an executed trade into a Telegram message.
func FormatTradeAlert(trade *model.Trade) string {
	emoji := "🟢"
	if trade.Type == model.SignalSell {
		emoji = "🔴"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s Signal</b>\n", emoji, trade.Type))
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("📊 Pair: %s\n", trade.Symbol))
	b.WriteString(fmt.Sprintf("💰 Price: %s\n", lira(trade.Price)))
	b.WriteString(fmt.Sprintf("📦 Quantity: %.8f\n", trade.Quantity))
	b.WriteString(fmt.Sprintf("💵 Amount: %s\n", lira(trade.Amount)))
	if trade.Reason != "" {
		b.WriteString(fmt.Sprintf("💡 Reason: %s\n", trade.Reason))
	}
	b.WriteString(fmt.Sprintf("⏰ Time: %s", trade.Time.Format("15:04:05")))

	if trade.Type == model.SignalSell {
		pnlEmoji := "📈"
		if trade.PnL < 0 {
			pnlEmoji = "📉"
		}
		b.WriteString(fmt.Sprintf("\n%s PnL: %s (%+.2f%%)", pnlEmoji, liraSigned(trade.PnL), trade.PnLPct))
	}
	return b.String()
}

// FormatDailyReport formats the account summary into the daily report message.
func FormatDailyReport(summary model.Summary) string {
	pnlEmoji := "📈"
	if summary.TotalPnL < 0 {
		pnlEmoji = "📉"
	}

	var b strings.Builder
	b.WriteString("📊 <b>Daily Report</b>\n")
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("💰 Initial: %s\n", lira(summary.InitialBalance)))
	b.WriteString(fmt.Sprintf("💵 Current: %s\n", lira(summary.TotalValue)))
	b.WriteString(fmt.Sprintf("%s PnL: %s (%+.2f%%)\n", pnlEmoji, liraSigned(summary.TotalPnL), summary.TotalPnLPct))
	b.WriteString(fmt.Sprintf("📝 Trades: %d\n", summary.TradeCount))
	b.WriteString(fmt.Sprintf("✅ Wins: %d\n", summary.WinningTrades))
	b.WriteString(fmt.Sprintf("❌ Losses: %d\n", summary.LosingTrades))
	b.WriteString(fmt.Sprintf("⏰ %s", time.Now().Format("2006-01-02 15:04")))

	if len(summary.Positions) > 0 {
		b.WriteString("\n\n📦 <b>Open Positions:</b>")
		for symbol, pos := range summary.Positions {
			b.WriteString(fmt.Sprintf("\n• %s: %.8f", symbol, pos.Quantity))
		}
	}
	return b.String()
}

// FormatStatus formats the bot status for the /status command.
func FormatStatus(symbol string, paperMode, running bool, summary model.Summary) string {
	mode := "📝 PAPER"
	if !paperMode {
		mode = "💰 LIVE"
	}
	state := "✅ Running"
	if !running {
		state = "⏸️ Stopped"
	}

	var b strings.Builder
	b.WriteString("🤖 <b>Bot Status</b>\n")
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("\n📊 Symbol: %s\n", symbol))
	b.WriteString(fmt.Sprintf("🎮 Mode: %s\n", mode))
	b.WriteString(fmt.Sprintf("⚡ State: %s\n\n", state))
	b.WriteString("💰 <b>Portfolio:</b>\n")
	b.WriteString(fmt.Sprintf("├ Initial: %s\n", lira(summary.InitialBalance)))
	b.WriteString(fmt.Sprintf("├ Current: %s\n", lira(summary.TotalValue)))
	b.WriteString(fmt.Sprintf("└ PnL: %s (%+.1f%%)\n\n", liraSigned(summary.TotalPnL), summary.TotalPnLPct))
	b.WriteString(fmt.Sprintf("📝 Trades: %d", summary.TradeCount))

	if len(summary.Positions) > 0 {
		b.WriteString("\n\n📦 <b>Open Positions:</b>")
		for symbol, pos := range summary.Positions {
			b.WriteString(fmt.Sprintf("\n• %s: %.6f @ %s", symbol, pos.Quantity, lira(pos.EntryPrice)))
		}
	}
	return b.String()
}

// FormatPrice formats the ticker and last analysis for the /price command.
func FormatPrice(ticker *model.Ticker, signal model.Signal, analysis *model.Analysis) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b>\n", ticker.Symbol))
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("\n💰 Price: %s\n", lira(ticker.Last)))
	b.WriteString(fmt.Sprintf("📈 24h: %+.2f%%\n", ticker.Change24h))

	if analysis != nil {
		b.WriteString(fmt.Sprintf("\n📉 RSI: %.1f\n", analysis.RSI))
		b.WriteString(fmt.Sprintf("📊 EMA: %s\n", lira(analysis.EMA)))
		b.WriteString(fmt.Sprintf("🎯 Signal: %s", signal))
	}
	return b.String()
}

// FormatAnalysis formats the last market analysis as a monospace block.
func FormatAnalysis(signal model.Signal, a *model.Analysis) string {
	if a == nil {
		return "No analysis yet"
	}
	reason := a.Reason
	if reason == "" {
		reason = "N/A"
	}

	var b strings.Builder
	b.WriteString("<pre>📊 Market Analysis\n")
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("💰 Price: %s\n", lira(a.Price)))
	b.WriteString(fmt.Sprintf("📈 RSI: %.1f (OS:%g / OB:%g)\n", a.RSI, a.RSIOversold, a.RSIOverbought))
	b.WriteString(fmt.Sprintf("📉 EMA: %s\n", lira(a.EMA)))
	b.WriteString(fmt.Sprintf("📏 EMA Distance: %+.2f%%\n", a.EMADistance))
	b.WriteString(fmt.Sprintf("🎯 Signal: %s\n", signal))
	b.WriteString(fmt.Sprintf("💡 Reason: %s</pre>", reason))
	return b.String()
}

// FormatBalance formats the account balances for the /balance command.
func FormatBalance(summary model.Summary) string {
	var b strings.Builder
	b.WriteString("💰 <b>Balance</b>\n")
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("\n🏦 TRY: %s\n", lira(summary.CurrentBalance)))
	b.WriteString(fmt.Sprintf("📊 Total: %s\n", lira(summary.TotalValue)))
	b.WriteString(fmt.Sprintf("📈 PnL: %s", liraSigned(summary.TotalPnL)))
	return b.String()
}

// FormatTrades formats recent trades, newest first, for the /trades command.
func FormatTrades(trades []model.Trade) string {
	if len(trades) == 0 {
		return "📝 No trades yet"
	}

	var b strings.Builder
	b.WriteString("📝 <b>Recent Trades</b>\n")
	b.WriteString(divider)
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		emoji := "🟢"
		if t.Type == model.SignalSell {
			emoji = "🔴"
		}
		b.WriteString(fmt.Sprintf("\n%s %s %s @ %s", emoji, t.Type, lira(t.Amount), t.Time.Format("02/01 15:04")))
		if t.Type == model.SignalSell {
			b.WriteString(fmt.Sprintf(" (PnL: %s)", liraSigned(t.PnL)))
		}
	}
	return b.String()
}

// FormatStartup formats the startup notification.
func FormatStartup(symbol string, paperMode bool) string {
	mode := "📝 PAPER"
	if !paperMode {
		mode = "💰 LIVE"
	}

	var b strings.Builder
	b.WriteString("🤖 <b>Trading Bot Started</b>\n")
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("📊 Symbol: %s\n", symbol))
	b.WriteString(fmt.Sprintf("🎮 Mode: %s\n", mode))
	b.WriteString(fmt.Sprintf("⏰ Time: %s", time.Now().Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatError formats an error notification.
func FormatError(err string) string {
	return "⚠️ <b>Bot Error</b>\n" + divider + err
}

// FormatHelp lists the supported chat commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>Commands</b>\n")
	b.WriteString(divider)
	b.WriteString("/status - Bot status and positions\n")
	b.WriteString("/price - Current price and RSI\n")
	b.WriteString("/balance - Account balance\n")
	b.WriteString("/trades - Last 5 trades\n")
	b.WriteString("/report - Daily performance\n")
	b.WriteString("/buy - Manual buy order\n")
	b.WriteString("/sell - Manual sell order\n")
	b.WriteString("/help - This message")
	return b.String()
}
