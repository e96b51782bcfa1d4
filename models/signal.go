package models

import (
	"github.com/shopspring/decimal"
)

// ActiveSignal is a signal that can still be joined
type ActiveSignal struct {
	SignalID  int64     `json:"signal_id"`
	Name      string    `json:"name"`
	JoinUntil Timestamp `json:"join_until"`
	ExpiresAt Timestamp `json:"expires_at"`
}

// ActiveSignals is the reply of signals/active. When nothing is open the
// backend sends only a message, which decodes to an empty list.
type ActiveSignals struct {
	ActiveSignals []ActiveSignal `json:"active_signals"`
	Message       string         `json:"message,omitempty"`
}

// First returns the first active signal, if any
func (a *ActiveSignals) First() (ActiveSignal, bool) {
	if a == nil || len(a.ActiveSignals) == 0 {
		return ActiveSignal{}, false
	}
	return a.ActiveSignals[0], true
}

// JoinSignal is the command payload for signals/join
type JoinSignal struct {
	TelegramID int64           `json:"telegram_id"`
	SignalID   int64           `json:"signal_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// JoinSignalResult is the reply of signals/join
type JoinSignalResult struct {
	Message  string          `json:"message"`
	SignalID int64           `json:"signal_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// CustomSignal is the command payload for signals/create_custom.
// JoinTime and ActiveTime are in seconds.
type CustomSignal struct {
	Name          string  `json:"name"`
	JoinTime      int64   `json:"join_time"`
	ActiveTime    int64   `json:"active_time"`
	BurnChance    float64 `json:"burn_chance"`
	ProfitPercent float64 `json:"profit_percent"`
}

// RandomSignal is the command payload for signals/create_random
type RandomSignal struct {
	Name string `json:"name"`
}

// CreatedSignal is the reply of both signal creation endpoints
type CreatedSignal struct {
	Message       string    `json:"message"`
	SignalID      int64     `json:"signal_id"`
	Name          string    `json:"name"`
	JoinUntil     Timestamp `json:"join_until"`
	ExpiresAt     Timestamp `json:"expires_at"`
	BurnChance    float64   `json:"burn_chance"`
	ProfitPercent float64   `json:"profit_percent"`
}

// Investment is a user's stake in one signal
type Investment struct {
	ID        int64           `json:"id"`
	SignalID  int64           `json:"signal_id"`
	Amount    decimal.Decimal `json:"amount"`
	Profit    decimal.Decimal `json:"profit"`
	CreatedAt Timestamp       `json:"created_at"`
}

// Investments is the reply of signals/investments. A user without
// investments gets only a message.
type Investments struct {
	UserID      int64        `json:"user_id"`
	Investments []Investment `json:"investments"`
	Message     string       `json:"message,omitempty"`
}

// Total sums the invested amounts
func (i *Investments) Total() decimal.Decimal {
	total := decimal.Zero
	if i == nil {
		return total
	}
	for _, inv := range i.Investments {
		total = total.Add(inv.Amount)
	}
	return total
}
