package service

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"tgwallet/events"
	"tgwallet/models"
)

// MockDoer is a mock implementation of apiclient.Doer. The first return
// value is a payload that is round-tripped through JSON into out, so tests
// can return plain structs or maps.
type MockDoer struct {
	mock.Mock
}

func (m *MockDoer) Do(ctx context.Context, method, path string, body, out any) error {
	args := m.Called(ctx, method, path, body)
	if payload := args.Get(0); payload != nil && out != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return err
		}
	}
	return args.Error(1)
}

// MockTokenResolver is a mock implementation of auth.TokenResolver
type MockTokenResolver struct {
	mock.Mock
}

func (m *MockTokenResolver) GetUserAuthToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindUserByID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockBalanceService is a mock implementation of BalanceService
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) GetUserBalance(ctx context.Context) (*models.Balance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func (m *MockBalanceService) Transactions(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockBalanceService) Investments(ctx context.Context) (*models.Investments, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Investments), args.Error(1)
}

func (m *MockBalanceService) TransferToTrading(ctx context.Context, amount decimal.Decimal) Result[*models.TransferResult] {
	args := m.Called(ctx, amount)
	return args.Get(0).(Result[*models.TransferResult])
}

func (m *MockBalanceService) TransferToMain(ctx context.Context, amount decimal.Decimal) Result[*models.TransferResult] {
	args := m.Called(ctx, amount)
	return args.Get(0).(Result[*models.TransferResult])
}

func (m *MockBalanceService) TopupMainBalance(ctx context.Context, amount decimal.Decimal) Result[*models.DepositResult] {
	args := m.Called(ctx, amount)
	return args.Get(0).(Result[*models.DepositResult])
}

// MockSignalService is a mock implementation of SignalService
type MockSignalService struct {
	mock.Mock
}

func (m *MockSignalService) ActiveSignals(ctx context.Context) (*models.ActiveSignals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActiveSignals), args.Error(1)
}

func (m *MockSignalService) JoinSignal(ctx context.Context, signalID int64, amount decimal.Decimal) Result[*models.JoinSignalResult] {
	args := m.Called(ctx, signalID, amount)
	return args.Get(0).(Result[*models.JoinSignalResult])
}

func (m *MockSignalService) CreateCustomSignal(ctx context.Context, signal models.CustomSignal) Result[*models.CreatedSignal] {
	args := m.Called(ctx, signal)
	return args.Get(0).(Result[*models.CreatedSignal])
}

func (m *MockSignalService) CreateRandomSignal(ctx context.Context, name string) Result[*models.CreatedSignal] {
	args := m.Called(ctx, name)
	return args.Get(0).(Result[*models.CreatedSignal])
}

// MockReferralService is a mock implementation of ReferralService
type MockReferralService struct {
	mock.Mock
}

func (m *MockReferralService) GetUserReferrals(ctx context.Context) (*models.Referral, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

func (m *MockReferralService) CheckReferral(ctx context.Context, telegramID int64, referralLink string) (*models.CheckReferral, error) {
	args := m.Called(ctx, telegramID, referralLink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckReferral), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, level events.NotificationLevel, message string) {
	m.Called(ctx, level, message)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}
