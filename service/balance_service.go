package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"tgwallet/apiclient"
	"tgwallet/models"
)

const (
	MessageTransferredToTrading = "Баланс успешно пополнен"
	MessageTransferredToMain    = "Перевод успешно выполнен"
	MessageDeposited            = "Вы успешно пополнили баланс"
)

// balanceService implements the BalanceService interface
type balanceService struct {
	api   apiclient.Doer
	users UserService
}

// NewBalanceService creates a new balance service
func NewBalanceService(api apiclient.Doer, users UserService) BalanceService {
	return &balanceService{
		api:   api,
		users: users,
	}
}

func (s *balanceService) GetUserBalance(ctx context.Context) (*models.Balance, error) {
	return WithCurrentUser(ctx, s.users, func(ctx context.Context, telegramID int64) (*models.Balance, error) {
		balance, err := apiclient.Get[*models.Balance](ctx, s.api, fmt.Sprintf("balance/%d", telegramID))
		if err != nil {
			return nil, fmt.Errorf("failed to get balance: %w", err)
		}
		return balance, nil
	})
}

func (s *balanceService) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return WithCurrentUser(ctx, s.users, func(ctx context.Context, telegramID int64) ([]models.Transaction, error) {
		txs, err := apiclient.Get[[]models.Transaction](ctx, s.api, fmt.Sprintf("transactions/%d", telegramID))
		if err != nil {
			return nil, fmt.Errorf("failed to get transactions: %w", err)
		}
		return txs, nil
	})
}

func (s *balanceService) Investments(ctx context.Context) (*models.Investments, error) {
	return WithCurrentUser(ctx, s.users, func(ctx context.Context, telegramID int64) (*models.Investments, error) {
		inv, err := apiclient.Get[*models.Investments](ctx, s.api, fmt.Sprintf("signals/investments/%d", telegramID))
		if err != nil {
			return nil, fmt.Errorf("failed to get investments: %w", err)
		}
		return inv, nil
	})
}

func (s *balanceService) TransferToTrading(ctx context.Context, amount decimal.Decimal) Result[*models.TransferResult] {
	return amountMutation[*models.TransferResult](ctx, s, "transfer_to_trading", amount, MessageTransferredToTrading)
}

func (s *balanceService) TransferToMain(ctx context.Context, amount decimal.Decimal) Result[*models.TransferResult] {
	return amountMutation[*models.TransferResult](ctx, s, "transfer_to_main", amount, MessageTransferredToMain)
}

func (s *balanceService) TopupMainBalance(ctx context.Context, amount decimal.Decimal) Result[*models.DepositResult] {
	return amountMutation[*models.DepositResult](ctx, s, "deposit", amount, MessageDeposited)
}

// amountMutation posts {amount} to <endpoint>/<telegram_id> for the current user
func amountMutation[T any](ctx context.Context, s *balanceService, endpoint string, amount decimal.Decimal, successMessage string) Result[T] {
	logger := log.WithFields(log.Fields{
		"operation": endpoint,
		"amount":    amount.String(),
	})

	if err := ValidateAmount(amount); err != nil {
		logger.Debug("Rejected mutation before dispatch")
		return failed[T](err)
	}

	value, err := WithCurrentUser(ctx, s.users, func(ctx context.Context, telegramID int64) (T, error) {
		return apiclient.Post[T](ctx, s.api, fmt.Sprintf("%s/%d", endpoint, telegramID), models.AmountRequest{Amount: amount})
	})
	if err != nil {
		logger.WithError(err).Warn("Balance mutation failed")
		return failed[T](err)
	}

	logger.Info("Balance mutation succeeded")
	return succeeded(value, successMessage)
}
