package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"tgwallet/apiclient"
	"tgwallet/models"
)

const (
	MessageSignalJoined  = "Вы успешно вошли в сигнал"
	MessageSignalCreated = "Сигнал создан"
)

// signalService implements the SignalService interface
type signalService struct {
	api   apiclient.Doer
	users UserService
}

// NewSignalService creates a new signal service
func NewSignalService(api apiclient.Doer, users UserService) SignalService {
	return &signalService{
		api:   api,
		users: users,
	}
}

func (s *signalService) ActiveSignals(ctx context.Context) (*models.ActiveSignals, error) {
	signals, err := apiclient.Get[*models.ActiveSignals](ctx, s.api, "signals/active")
	if err != nil {
		return nil, fmt.Errorf("failed to get active signals: %w", err)
	}
	if signals == nil {
		signals = &models.ActiveSignals{}
	}
	if signals.ActiveSignals == nil {
		signals.ActiveSignals = []models.ActiveSignal{}
	}
	return signals, nil
}

func (s *signalService) JoinSignal(ctx context.Context, signalID int64, amount decimal.Decimal) Result[*models.JoinSignalResult] {
	logger := log.WithFields(log.Fields{
		"signal_id": signalID,
		"amount":    amount.String(),
	})

	if err := ValidateAmount(amount); err != nil {
		return failed[*models.JoinSignalResult](err)
	}
	if signalID <= 0 {
		return failed[*models.JoinSignalResult](fmt.Errorf("invalid signal id %d", signalID))
	}

	result, err := WithCurrentUser(ctx, s.users, func(ctx context.Context, telegramID int64) (*models.JoinSignalResult, error) {
		return apiclient.Post[*models.JoinSignalResult](ctx, s.api, "signals/join", models.JoinSignal{
			TelegramID: telegramID,
			SignalID:   signalID,
			Amount:     amount,
		})
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to join signal")
		return failed[*models.JoinSignalResult](err)
	}

	logger.Info("Joined signal")
	return succeeded(result, MessageSignalJoined)
}

func (s *signalService) CreateCustomSignal(ctx context.Context, signal models.CustomSignal) Result[*models.CreatedSignal] {
	if err := validateCustomSignal(signal); err != nil {
		return failed[*models.CreatedSignal](err)
	}

	created, err := apiclient.Post[*models.CreatedSignal](ctx, s.api, "signals/create_custom", signal)
	if err != nil {
		log.WithError(err).WithField("name", signal.Name).Warn("Failed to create custom signal")
		return failed[*models.CreatedSignal](err)
	}
	return succeeded(created, MessageSignalCreated)
}

func (s *signalService) CreateRandomSignal(ctx context.Context, name string) Result[*models.CreatedSignal] {
	name = strings.TrimSpace(name)
	if name == "" {
		return failed[*models.CreatedSignal](fmt.Errorf("signal name is required"))
	}

	created, err := apiclient.Post[*models.CreatedSignal](ctx, s.api, "signals/create_random", models.RandomSignal{Name: name})
	if err != nil {
		log.WithError(err).WithField("name", name).Warn("Failed to create random signal")
		return failed[*models.CreatedSignal](err)
	}
	return succeeded(created, MessageSignalCreated)
}

func validateCustomSignal(s models.CustomSignal) error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("signal name is required")
	case s.JoinTime <= 0 || s.ActiveTime <= 0:
		return fmt.Errorf("join and active time must be positive")
	case s.BurnChance < 0 || s.BurnChance > 100:
		return fmt.Errorf("burn chance must be between 0 and 100")
	}
	return nil
}
