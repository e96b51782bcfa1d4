package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"tgwallet/apiclient"
	"tgwallet/events"
	"tgwallet/models"
)

// referralService implements the ReferralService interface
type referralService struct {
	api            apiclient.Doer
	users          UserService
	eventPublisher EventPublisher
}

// NewReferralService creates a new referral service. eventPublisher may be nil.
func NewReferralService(api apiclient.Doer, users UserService, eventPublisher EventPublisher) ReferralService {
	return &referralService{
		api:            api,
		users:          users,
		eventPublisher: eventPublisher,
	}
}

func (s *referralService) GetUserReferrals(ctx context.Context) (*models.Referral, error) {
	return WithCurrentUser(ctx, s.users, func(ctx context.Context, telegramID int64) (*models.Referral, error) {
		tree, err := apiclient.Get[*models.Referral](ctx, s.api, fmt.Sprintf("referral_tree/%d", telegramID))
		if err != nil {
			return nil, fmt.Errorf("failed to get referrals: %w", err)
		}
		return tree, nil
	})
}

// CheckReferral errors propagate; the caller decides where to send the user
func (s *referralService) CheckReferral(ctx context.Context, telegramID int64, referralLink string) (*models.CheckReferral, error) {
	if telegramID <= 0 {
		return nil, ErrInvalidID
	}

	result, err := apiclient.Post[*models.CheckReferral](ctx, s.api, "check_referral", models.CheckReferralRequest{
		TelegramID:   telegramID,
		ReferralLink: referralLink,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check referral: %w", err)
	}
	if result == nil {
		result = &models.CheckReferral{}
	}

	log.WithFields(log.Fields{
		"telegram_id":   telegramID,
		"referral_link": referralLink,
		"exists":        result.Exists,
		"message":       result.Message,
	}).Info("Referral checked")

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(events.ReferralCheckedEvent{
			TelegramID:   telegramID,
			ReferralLink: referralLink,
			Exists:       result.Exists,
			Message:      result.Message,
		})
	}

	return result, nil
}
