package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidID is returned for lookup input that is not a positive integer
	ErrInvalidID = errors.New("invalid telegram id")

	// ErrInvalidAmount is returned for mutation amounts that are not > 0
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrNoCurrentUser means the current user resolved without a Telegram ID
	ErrNoCurrentUser = errors.New("current user has no telegram id")
)

// ParseTelegramID parses lookup input into a Telegram ID. Anything that is
// not a finite positive integer is rejected, so it never reaches a request.
func ParseTelegramID(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrInvalidID
	}

	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id <= 0 {
			return 0, ErrInvalidID
		}
		return id, nil
	}

	// Accept integral decimal spellings such as "42.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f <= 0 || f >= math.MaxInt64 {
		return 0, ErrInvalidID
	}
	return int64(f), nil
}

// ValidateAmount rejects amounts that are not strictly positive
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// WithCurrentUser resolves the current user and then calls fn with their
// Telegram ID. The two requests are always issued one after the other.
func WithCurrentUser[T any](ctx context.Context, users UserService, fn func(ctx context.Context, telegramID int64) (T, error)) (T, error) {
	var zero T

	user, err := users.GetUser(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to get current user: %w", err)
	}
	if user == nil || user.TelegramID == 0 {
		return zero, ErrNoCurrentUser
	}

	return fn(ctx, user.TelegramID)
}
