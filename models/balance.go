package models

import (
	"github.com/shopspring/decimal"
)

// Balance is a snapshot of a user's balances
type Balance struct {
	ID            int64           `json:"id,omitempty"`
	TelegramID    int64           `json:"telegram_id,omitempty"`
	Balance       decimal.Decimal `json:"balance"`       // Spendable main balance
	TradeBalance  decimal.Decimal `json:"trade_balance"` // Committed to active signals
	FrozenBalance decimal.Decimal `json:"frozen_balance"`
}

// AmountRequest is the body of every balance mutation
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferResult is returned by transfer_to_trading and transfer_to_main.
// transfer_to_main answers with the refreshed balance fields instead of a message.
type TransferResult struct {
	Message       string           `json:"message,omitempty"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	TradeBalance  *decimal.Decimal `json:"trade_balance,omitempty"`
	FrozenBalance *decimal.Decimal `json:"frozen_balance,omitempty"`
}

// DepositResult is returned by deposit
type DepositResult struct {
	Message    string          `json:"message"`
	NewBalance decimal.Decimal `json:"new_balance"`
}
