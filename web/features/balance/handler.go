package balance

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

// balanceView is the trading balance card
type balanceView struct {
	Balance          decimal.Decimal `json:"balance"`
	TradeBalance     decimal.Decimal `json:"trade_balance"`
	FrozenBalance    decimal.Decimal `json:"frozen_balance"`
	BalanceText      string          `json:"balance_text"`
	TradeBalanceText string          `json:"trade_balance_text"`

	// The transfer form is only offered when there is something to transfer
	CanTransfer bool `json:"can_transfer"`
}

// workView is the "В РАБОТЕ" card: the trading balance and what is staked in signals
type workView struct {
	TradeBalance     decimal.Decimal `json:"trade_balance"`
	InWork           decimal.Decimal `json:"in_work"`
	TradeBalanceText string          `json:"trade_balance_text"`
	InWorkText       string          `json:"in_work_text"`
	Investments      int             `json:"investments"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// balance-changing mutations outdate these reads
var balanceDependents = []query.Key{session.KeyBalance, session.KeyTransactions}

func (f *Feature) balanceQuery() query.Query[*models.Balance] {
	return query.Query[*models.Balance]{
		Key: session.KeyBalance,
		Fn:  f.balanceService.GetUserBalance,
	}
}

func (f *Feature) handleBalance(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	state := query.Fetch(r.Context(), sess.Store, f.balanceQuery())
	common.RespondView(w, state, "", func(b *models.Balance) any {
		if b == nil {
			return nil
		}
		return balanceView{
			Balance:          b.Balance,
			TradeBalance:     b.TradeBalance,
			FrozenBalance:    b.FrozenBalance,
			BalanceText:      common.FormatMoney(b.Balance),
			TradeBalanceText: common.FormatMoney(b.TradeBalance),
			CanTransfer:      b.Balance.IsPositive(),
		}
	})
}

func (f *Feature) handleWork(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	balance := query.Fetch(ctx, sess.Store, f.balanceQuery())
	investments := query.Fetch(ctx, sess.Store, query.Query[*models.Investments]{
		Key: session.KeyInvestments,
		Fn:  f.balanceService.Investments,
	})

	if balance.Err != nil && !balance.HasData {
		common.RespondView(w, balance, "", nil)
		return
	}

	// Investments failing still shows the balance with nothing in work
	combined := query.State[workView]{
		Status:    balance.Status,
		HasData:   true,
		Stale:     balance.Stale || investments.Stale,
		UpdatedAt: balance.UpdatedAt,
	}
	view := workView{}
	if balance.Data != nil {
		view.TradeBalance = balance.Data.TradeBalance
	}
	view.InWork = investments.Data.Total()
	if investments.Data != nil {
		view.Investments = len(investments.Data.Investments)
	}
	view.TradeBalanceText = common.FormatMoney(view.TradeBalance)
	view.InWorkText = common.FormatMoney(view.InWork)
	combined.Data = view

	common.RespondView(w, combined, "", nil)
}

func (f *Feature) handleTransferToTrading(w http.ResponseWriter, r *http.Request) {
	f.handleAmountMutation(w, r, "transfer_to_trading", func(ctx context.Context, amount decimal.Decimal) service.Result[*models.TransferResult] {
		return f.balanceService.TransferToTrading(ctx, amount)
	})
}

func (f *Feature) handleTransferToMain(w http.ResponseWriter, r *http.Request) {
	f.handleAmountMutation(w, r, "transfer_to_main", func(ctx context.Context, amount decimal.Decimal) service.Result[*models.TransferResult] {
		return f.balanceService.TransferToMain(ctx, amount)
	})
}

func (f *Feature) handleDeposit(w http.ResponseWriter, r *http.Request) {
	sess, amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}

	result := session.Mutate(r.Context(), sess, "deposit", balanceDependents, func(ctx context.Context) service.Result[*models.DepositResult] {
		return f.balanceService.TopupMainBalance(ctx, amount)
	})
	common.RespondMutation(w, result, sess.DrainNotifications())
}

func (f *Feature) handleAmountMutation(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, decimal.Decimal) service.Result[*models.TransferResult]) {
	sess, amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}

	result := session.Mutate(r.Context(), sess, op, balanceDependents, func(ctx context.Context) service.Result[*models.TransferResult] {
		return fn(ctx, amount)
	})
	common.RespondMutation(w, result, sess.DrainNotifications())
}

func decodeAmount(w http.ResponseWriter, r *http.Request) (*session.Session, decimal.Decimal, bool) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return nil, decimal.Zero, false
	}

	var req amountRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		common.RespondWithError(w, r, common.BadRequest("Введите корректную сумму", err))
		return nil, decimal.Zero, false
	}
	return sess, req.Amount, true
}
