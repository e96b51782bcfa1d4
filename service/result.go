package service

import (
	"context"
	"errors"

	"tgwallet/apiclient"
	"tgwallet/auth"
	"tgwallet/events"
)

// Notification is the toast attached to a mutation result
type Notification struct {
	Level   events.NotificationLevel `json:"level"`
	Message string                   `json:"message"`
}

// Result is the outcome of a mutation. Mutations never return an error to
// the caller; a failure is carried in Err together with the notification to
// show.
type Result[T any] struct {
	Value        T
	Err          error
	Notification *Notification
}

// OK reports whether the mutation succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the value and error, for callers that want the usual Go shape
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

func succeeded[T any](value T, message string) Result[T] {
	r := Result[T]{Value: value}
	if message != "" {
		r.Notification = &Notification{Level: events.NotificationSuccess, Message: message}
	}
	return r
}

func failed[T any](err error) Result[T] {
	return Result[T]{
		Err:          err,
		Notification: &Notification{Level: events.NotificationError, Message: ErrorMessage(err)},
	}
}

// Notify dispatches the result's notification, if any, and returns the result unchanged
func Notify[T any](ctx context.Context, r Result[T], n Notifier) Result[T] {
	if n != nil && r.Notification != nil {
		n.Notify(ctx, r.Notification.Level, r.Notification.Message)
	}
	return r
}

// ErrorMessage turns an error into the text shown to the user
func ErrorMessage(err error) string {
	var statusErr *apiclient.HTTPStatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &statusErr) && statusErr.Detail != "":
		return statusErr.Detail
	case errors.Is(err, auth.ErrAuthUnavailable):
		return "Необходима авторизация"
	case errors.Is(err, ErrInvalidAmount):
		return "Сумма должна быть больше нуля"
	default:
		return err.Error()
	}
}

// EventNotifier publishes notifications on the event bus for one session
type EventNotifier struct {
	Publisher EventPublisher
	SessionID string
}

func (n EventNotifier) Notify(_ context.Context, level events.NotificationLevel, message string) {
	if n.Publisher == nil {
		return
	}
	n.Publisher.Publish(events.NotificationEvent{
		SessionID: n.SessionID,
		Level:     level,
		Message:   message,
	})
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, level events.NotificationLevel, message string)

func (f NotifierFunc) Notify(ctx context.Context, level events.NotificationLevel, message string) {
	f(ctx, level, message)
}
