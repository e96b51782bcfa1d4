package signals

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"tgwallet/models"
	"tgwallet/query"
	"tgwallet/service"
	"tgwallet/web/common"
	"tgwallet/web/session"
)

const maxBodyBytes = 1 << 16

type signalView struct {
	SignalID      int64            `json:"signal_id"`
	Name          string           `json:"name"`
	JoinUntil     models.Timestamp `json:"join_until"`
	ExpiresAt     models.Timestamp `json:"expires_at"`
	JoinUntilText string           `json:"join_until_text"`
	ExpiresAtText string           `json:"expires_at_text"`
}

type signalsView struct {
	FirstName string       `json:"first_name,omitempty"`
	Signals   []signalView `json:"signals"`
	Message   string       `json:"message,omitempty"`
}

type joinRequest struct {
	SignalID int64           `json:"signal_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type randomRequest struct {
	Name string `json:"name"`
}

var (
	joinDependents = []query.Key{
		session.KeyBalance,
		session.KeyTransactions,
		session.KeyInvestments,
		session.KeyActiveSignals,
	}
	createDependents = []query.Key{session.KeyActiveSignals}
)

func (f *Feature) handleActiveSignals(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	// The greeting is optional; a failed user lookup only drops the name
	user := session.CurrentUser(ctx, sess, f.userService)
	state := query.Fetch(ctx, sess.Store, query.Query[*models.ActiveSignals]{
		Key: session.KeyActiveSignals,
		Fn:  f.signalService.ActiveSignals,
	})

	common.RespondView(w, state, "", func(active *models.ActiveSignals) any {
		view := signalsView{Signals: []signalView{}}
		if user.Data != nil {
			view.FirstName = user.Data.FirstName
		}
		if active == nil {
			return view
		}
		view.Message = active.Message
		for _, s := range active.ActiveSignals {
			view.Signals = append(view.Signals, signalView{
				SignalID:      s.SignalID,
				Name:          s.Name,
				JoinUntil:     s.JoinUntil,
				ExpiresAt:     s.ExpiresAt,
				JoinUntilText: common.FormatTime(s.JoinUntil.Time),
				ExpiresAtText: common.FormatTime(s.ExpiresAt.Time),
			})
		}
		return view
	})
}

func (f *Feature) handleJoin(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if !decode(w, r, &req, "Введите корректную сумму") {
		return
	}

	result := session.Mutate(r.Context(), sess, "join_signal", joinDependents, func(ctx context.Context) service.Result[*models.JoinSignalResult] {
		return f.signalService.JoinSignal(ctx, req.SignalID, req.Amount)
	})
	common.RespondMutation(w, result, sess.DrainNotifications())
}

func (f *Feature) handleCreateCustom(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	var req models.CustomSignal
	if !decode(w, r, &req, "Проверьте параметры сигнала") {
		return
	}

	result := session.Mutate(r.Context(), sess, "create_custom_signal", createDependents, func(ctx context.Context) service.Result[*models.CreatedSignal] {
		return f.signalService.CreateCustomSignal(ctx, req)
	})
	common.RespondMutation(w, result, sess.DrainNotifications())
}

func (f *Feature) handleCreateRandom(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	var req randomRequest
	if !decode(w, r, &req, "Введите название сигнала") {
		return
	}

	result := session.Mutate(r.Context(), sess, "create_random_signal", createDependents, func(ctx context.Context) service.Result[*models.CreatedSignal] {
		return f.signalService.CreateRandomSignal(ctx, req.Name)
	})
	common.RespondMutation(w, result, sess.DrainNotifications())
}

func decode(w http.ResponseWriter, r *http.Request, v any, userMessage string) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		common.RespondWithError(w, r, common.BadRequest(userMessage, err))
		return false
	}
	return true
}
