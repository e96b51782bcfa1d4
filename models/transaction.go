package models

import (
	"github.com/shopspring/decimal"
)

// TransactionType tags a balance change
type TransactionType string

const (
	TransactionTypeDeposit           TransactionType = "deposit"
	TransactionTypeTransferToTrading TransactionType = "transfer_to_trading"
	TransactionTypeTransferToMain    TransactionType = "transfer_to_main"
	TransactionTypeSignalJoin        TransactionType = "signal_join"
	TransactionTypeSignalProfit      TransactionType = "signal_profit"
	TransactionTypeReferralBonus     TransactionType = "referral_bonus"
)

// Transaction is an immutable historical balance change
type Transaction struct {
	ID              int64           `json:"id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"` // Signed
	CreatedAt       Timestamp       `json:"created_at"`
}

// MostRecentFirst returns a copy of txs in reverse order. The backend lists
// transactions oldest first.
func MostRecentFirst(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[len(txs)-1-i] = tx
	}
	return out
}
