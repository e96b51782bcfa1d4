package session

import (
	"context"

	"tgwallet/models"
	"tgwallet/query"
	"tgwallet/service"
)

// Cache keys shared by the views and the mutations that outdate them
var (
	KeyUser          = query.NewKey("user")
	KeyBalance       = query.NewKey("balance")
	KeyTransactions  = query.NewKey("transactions")
	KeyInvestments   = query.NewKey("investments")
	KeyActiveSignals = query.NewKey("active_signals")
	KeyReferrals     = query.NewKey("referrals")
)

const (
	OpUserByID       = "user_by_id"
	OpUserByUsername = "user_by_username"
)

// Mutate runs a service mutation through the session cache: dependent keys
// are invalidated on success and the result's notification is queued.
func Mutate[T any](ctx context.Context, s *Session, op string, invalidates []query.Key, fn func(ctx context.Context) service.Result[T]) service.Result[T] {
	result, _ := query.Mutate(ctx, s.Store, query.Mutation[service.Result[T]]{
		Op: op,
		Fn: func(ctx context.Context) (service.Result[T], error) {
			r := fn(ctx)
			return r, r.Err
		},
		Invalidates: invalidates,
	})
	return service.Notify(ctx, result, s)
}

// CurrentUser reads the current user through the session cache
func CurrentUser(ctx context.Context, s *Session, users service.UserService) query.State[*models.User] {
	return query.Fetch(ctx, s.Store, query.Query[*models.User]{
		Key: KeyUser,
		Fn:  users.GetUser,
	})
}
