package service

import (
	"context"

	"github.com/shopspring/decimal"

	"tgwallet/events"
	"tgwallet/models"
)

// UserService defines the interface for user lookups
type UserService interface {
	// GetUser resolves the current user from the host-supplied auth token
	GetUser(ctx context.Context) (*models.User, error)

	// FindUserByID looks up a user by Telegram ID
	FindUserByID(ctx context.Context, telegramID int64) (*models.User, error)

	// FindUserByUsername looks up a user by Telegram username
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// BalanceService defines the interface for balance operations of the current user
type BalanceService interface {
	// GetUserBalance returns the main and trading balances
	GetUserBalance(ctx context.Context) (*models.Balance, error)

	// Transactions returns the balance history as sent by the backend (oldest first)
	Transactions(ctx context.Context) ([]models.Transaction, error)

	// Investments returns the user's stakes in signals
	Investments(ctx context.Context) (*models.Investments, error)

	// TransferToTrading moves amount from the main balance to the trading balance
	TransferToTrading(ctx context.Context, amount decimal.Decimal) Result[*models.TransferResult]

	// TransferToMain moves amount from the trading balance back to the main balance
	TransferToMain(ctx context.Context, amount decimal.Decimal) Result[*models.TransferResult]

	// TopupMainBalance deposits amount to the main balance
	TopupMainBalance(ctx context.Context, amount decimal.Decimal) Result[*models.DepositResult]
}

// SignalService defines the interface for signal operations
type SignalService interface {
	// ActiveSignals returns the signals that can still be joined
	ActiveSignals(ctx context.Context) (*models.ActiveSignals, error)

	// JoinSignal stakes amount of the current user's trading balance in a signal
	JoinSignal(ctx context.Context, signalID int64, amount decimal.Decimal) Result[*models.JoinSignalResult]

	// CreateCustomSignal creates a signal with explicit parameters
	CreateCustomSignal(ctx context.Context, signal models.CustomSignal) Result[*models.CreatedSignal]

	// CreateRandomSignal creates a signal with backend-chosen parameters
	CreateRandomSignal(ctx context.Context, name string) Result[*models.CreatedSignal]
}

// ReferralService defines the interface for referral operations
type ReferralService interface {
	// GetUserReferrals returns the current user's referral link and tree
	GetUserReferrals(ctx context.Context) (*models.Referral, error)

	// CheckReferral binds telegramID to the owner of referralLink
	CheckReferral(ctx context.Context, telegramID int64, referralLink string) (*models.CheckReferral, error)
}

// Notifier shows a transient message to the user
type Notifier interface {
	Notify(ctx context.Context, level events.NotificationLevel, message string)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}
