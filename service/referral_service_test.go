package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tgwallet/events"
	"tgwallet/models"
)

func TestReferralService_GetUserReferrals(t *testing.T) {
	ctx := context.Background()
	mockAPI := new(MockDoer)
	users := new(MockUserService)
	users.On("GetUser", ctx).Return(&models.User{TelegramID: 10}, nil)
	service := NewReferralService(mockAPI, users, nil)

	mockAPI.On("Do", ctx, "GET", "referral_tree/10", nil).Return(map[string]any{
		"referral_link": "https://app.com/ref/10-20",
		"invited_users": []map[string]any{
			{"telegram_id": 11, "invited_users": []map[string]any{{"telegram_id": 12}}},
			{"telegram_id": 13},
		},
	}, nil)

	tree, err := service.GetUserReferrals(ctx)

	require.NoError(t, err)
	assert.Equal(t, "https://app.com/ref/10-20", tree.ReferralLink)
	assert.Equal(t, 3, tree.Size())
}

func TestReferralService_CheckReferral(t *testing.T) {
	ctx := context.Background()
	mockAPI := new(MockDoer)
	publisher := new(MockEventPublisher)
	service := NewReferralService(mockAPI, new(MockUserService), publisher)

	mockAPI.On("Do", ctx, "POST", "check_referral", models.CheckReferralRequest{
		TelegramID:   555,
		ReferralLink: "https://app.com/ref/10-20",
	}).Return(map[string]any{"exists": true, "message": models.ReferralBoundMessage}, nil)
	publisher.On("Publish", mock.MatchedBy(func(e events.ReferralCheckedEvent) bool {
		return e.TelegramID == 555 && e.Exists
	})).Once()

	result, err := service.CheckReferral(ctx, 555, "https://app.com/ref/10-20")

	require.NoError(t, err)
	assert.Equal(t, models.ReferralBoundMessage, result.Message)
	publisher.AssertExpectations(t)
}

func TestReferralService_CheckReferral_Error(t *testing.T) {
	ctx := context.Background()
	mockAPI := new(MockDoer)
	service := NewReferralService(mockAPI, new(MockUserService), nil)

	mockAPI.On("Do", ctx, "POST", "check_referral", mock.Anything).Return(nil, errors.New("down"))

	_, err := service.CheckReferral(ctx, 555, "https://app.com/ref/1-2")
	assert.Error(t, err)
}

func TestReferralService_CheckReferral_InvalidID(t *testing.T) {
	mockAPI := new(MockDoer)
	service := NewReferralService(mockAPI, new(MockUserService), nil)

	_, err := service.CheckReferral(context.Background(), 0, "x")

	assert.ErrorIs(t, err, ErrInvalidID)
	mockAPI.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
