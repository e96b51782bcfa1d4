package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tgwallet/apiclient"
	"tgwallet/events"
	"tgwallet/models"
)

func newBalanceFixture(telegramID int64) (*MockDoer, *MockUserService, BalanceService) {
	mockAPI := new(MockDoer)
	users := new(MockUserService)
	users.On("GetUser", mock.Anything).Return(&models.User{TelegramID: telegramID}, nil)
	return mockAPI, users, NewBalanceService(mockAPI, users)
}

func TestBalanceService_GetUserBalance(t *testing.T) {
	ctx := context.Background()
	mockAPI, _, service := newBalanceFixture(555)

	mockAPI.On("Do", ctx, "GET", "balance/555", nil).Return(map[string]any{
		"id":             1,
		"telegram_id":    555,
		"balance":        "100.50",
		"trade_balance":  "20",
		"frozen_balance": "0",
	}, nil)

	balance, err := service.GetUserBalance(ctx)

	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("100.50")))
	assert.True(t, balance.TradeBalance.Equal(decimal.NewFromInt(20)))
	mockAPI.AssertExpectations(t)
}

func TestBalanceService_GetUserBalance_UserFirst(t *testing.T) {
	ctx := context.Background()

	mockAPI := new(MockDoer)
	users := new(MockUserService)
	users.On("GetUser", ctx).Return(nil, errors.New("no session"))
	service := NewBalanceService(mockAPI, users)

	_, err := service.GetUserBalance(ctx)

	assert.Error(t, err)
	mockAPI.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBalanceService_Transactions(t *testing.T) {
	ctx := context.Background()
	mockAPI, _, service := newBalanceFixture(7)

	mockAPI.On("Do", ctx, "GET", "transactions/7", nil).Return([]map[string]any{
		{"id": 1, "transaction_type": "deposit", "amount": "10", "created_at": "2024-05-01T10:00:00"},
		{"id": 2, "transaction_type": "transfer_to_trading", "amount": "-5", "created_at": "2024-05-02T10:00:00"},
	}, nil)

	txs, err := service.Transactions(ctx)

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, models.TransactionTypeDeposit, txs[0].TransactionType)
	assert.True(t, txs[1].Amount.IsNegative())
}

func TestBalanceService_Investments(t *testing.T) {
	ctx := context.Background()
	mockAPI, _, service := newBalanceFixture(7)

	mockAPI.On("Do", ctx, "GET", "signals/investments/7", nil).Return(map[string]any{
		"user_id": 3,
		"investments": []map[string]any{
			{"id": 1, "signal_id": 4, "amount": "10.5"},
			{"id": 2, "signal_id": 5, "amount": "4.5"},
		},
	}, nil)

	inv, err := service.Investments(ctx)

	require.NoError(t, err)
	assert.True(t, inv.Total().Equal(decimal.NewFromInt(15)))
}

func TestBalanceService_TransferToTrading_Success(t *testing.T) {
	ctx := context.Background()
	mockAPI, _, service := newBalanceFixture(555)
	amount := decimal.NewFromInt(50)

	mockAPI.On("Do", ctx, "POST", "transfer_to_trading/555", models.AmountRequest{Amount: amount}).
		Return(map[string]any{"message": "ok"}, nil)

	result := service.TransferToTrading(ctx, amount)

	require.True(t, result.OK())
	require.NotNil(t, result.Notification)
	assert.Equal(t, events.NotificationSuccess, result.Notification.Level)
	assert.Equal(t, "Баланс успешно пополнен", result.Notification.Message)
	assert.Equal(t, "ok", result.Value.Message)
	mockAPI.AssertExpectations(t)
}

func TestBalanceService_TransferToTrading_NegativeAmountNeverDispatched(t *testing.T) {
	mockAPI, users, service := newBalanceFixture(555)

	result := service.TransferToTrading(context.Background(), decimal.NewFromInt(-5))

	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err, ErrInvalidAmount)
	require.NotNil(t, result.Notification)
	assert.Equal(t, events.NotificationError, result.Notification.Level)
	mockAPI.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "GetUser", mock.Anything)
}

func TestBalanceService_TransferToMain_FailureResolves(t *testing.T) {
	ctx := context.Background()
	mockAPI, _, service := newBalanceFixture(555)
	amount := decimal.NewFromInt(10)

	mockAPI.On("Do", ctx, "POST", "transfer_to_main/555", models.AmountRequest{Amount: amount}).
		Return(nil, &apiclient.HTTPStatusError{StatusCode: 400, Detail: "Недостаточно средств"})

	var result Result[*models.TransferResult]
	assert.NotPanics(t, func() {
		result = service.TransferToMain(ctx, amount)
	})

	assert.False(t, result.OK())
	assert.Nil(t, result.Value)
	require.NotNil(t, result.Notification)
	assert.Equal(t, events.NotificationError, result.Notification.Level)
	assert.Equal(t, "Недостаточно средств", result.Notification.Message)
}

func TestBalanceService_TopupMainBalance(t *testing.T) {
	ctx := context.Background()
	mockAPI, _, service := newBalanceFixture(555)
	amount := decimal.NewFromInt(100)

	mockAPI.On("Do", ctx, "POST", "deposit/555", models.AmountRequest{Amount: amount}).
		Return(map[string]any{"message": "done", "new_balance": "200"}, nil)

	result := service.TopupMainBalance(ctx, amount)

	require.True(t, result.OK())
	assert.True(t, result.Value.NewBalance.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Вы успешно пополнили баланс", result.Notification.Message)
}

func TestNotify(t *testing.T) {
	ctx := context.Background()
	notifier := new(MockNotifier)
	notifier.On("Notify", ctx, events.NotificationSuccess, "hi").Once()

	r := Notify(ctx, succeeded(1, "hi"), notifier)
	assert.Equal(t, 1, r.Value)

	// no notification, no call
	Notify(ctx, Result[int]{Value: 2}, notifier)
	Notify(ctx, succeeded(3, "ignored"), nil)

	notifier.AssertExpectations(t)
}

func TestEventNotifier(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("Publish", events.NotificationEvent{
		SessionID: "s1",
		Level:     events.NotificationError,
		Message:   "boom",
	}).Once()

	EventNotifier{Publisher: publisher, SessionID: "s1"}.Notify(context.Background(), events.NotificationError, "boom")

	publisher.AssertExpectations(t)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", ErrorMessage(nil))
	assert.Equal(t, "nope", ErrorMessage(&apiclient.HTTPStatusError{StatusCode: 400, Detail: "nope"}))
	assert.Equal(t, "Сумма должна быть больше нуля", ErrorMessage(ErrInvalidAmount))
	assert.Equal(t, "plain", ErrorMessage(errors.New("plain")))
}
