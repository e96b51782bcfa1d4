package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"tgwallet/apiclient"
	"tgwallet/auth"
	"tgwallet/models"
)

// userService implements the UserService interface
type userService struct {
	api    apiclient.Doer
	tokens auth.TokenResolver
}

// NewUserService creates a new user service
func NewUserService(api apiclient.Doer, tokens auth.TokenResolver) UserService {
	return &userService{
		api:    api,
		tokens: tokens,
	}
}

// GetUser resolves the current user. The token is read on every call.
func (s *userService) GetUser(ctx context.Context) (*models.User, error) {
	token, err := s.tokens.GetUserAuthToken(ctx)
	if err != nil {
		return nil, err
	}

	user, err := apiclient.Get[*models.User](ctx, s.api, "api/auth?token="+url.QueryEscape(token))
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return user, nil
}

// FindUserByID looks up a user by Telegram ID
func (s *userService) FindUserByID(ctx context.Context, telegramID int64) (*models.User, error) {
	if telegramID <= 0 {
		return nil, ErrInvalidID
	}

	user, err := apiclient.Get[*models.User](ctx, s.api, fmt.Sprintf("user/%d", telegramID))
	if err != nil {
		return nil, fmt.Errorf("failed to find user %d: %w", telegramID, err)
	}
	return user, nil
}

// FindUserByUsername looks up a user by Telegram username. A leading "@" is ignored.
func (s *userService) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	user, err := apiclient.Get[*models.User](ctx, s.api, "user/"+url.PathEscape(username))
	if err != nil {
		return nil, fmt.Errorf("failed to find user %q: %w", username, err)
	}
	return user, nil
}
