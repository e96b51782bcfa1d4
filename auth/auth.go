// Package auth resolves the Mini App auth token handed over by the host.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrAuthUnavailable means the host did not supply a token
var ErrAuthUnavailable = errors.New("auth token unavailable")

// TokenResolver returns the current user's auth token. Implementations must
// resolve the token on every call and never cache it.
type TokenResolver interface {
	GetUserAuthToken(ctx context.Context) (string, error)
}

type tokenKey struct{}

// WithToken returns a copy of ctx carrying token
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token stored by WithToken, if any
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// ContextResolver reads the token the web layer put on the request context
type ContextResolver struct{}

func (ContextResolver) GetUserAuthToken(ctx context.Context) (string, error) {
	if token, ok := TokenFromContext(ctx); ok {
		return token, nil
	}
	return "", ErrAuthUnavailable
}

// StaticResolver always returns the same token. Used by the CLI and in development.
type StaticResolver string

func (s StaticResolver) GetUserAuthToken(context.Context) (string, error) {
	if token := strings.TrimSpace(string(s)); token != "" {
		return token, nil
	}
	return "", ErrAuthUnavailable
}

// ChainResolver tries each resolver in order and returns the first token found.
// Errors other than ErrAuthUnavailable stop the chain.
type ChainResolver []TokenResolver

func (c ChainResolver) GetUserAuthToken(ctx context.Context) (string, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		token, err := r.GetUserAuthToken(ctx)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrAuthUnavailable) {
			return "", err
		}
	}
	return "", ErrAuthUnavailable
}

// ResolverFunc adapts a function to TokenResolver
type ResolverFunc func(ctx context.Context) (string, error)

func (f ResolverFunc) GetUserAuthToken(ctx context.Context) (string, error) {
	return f(ctx)
}
