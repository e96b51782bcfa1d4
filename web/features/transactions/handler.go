package transactions

import (
	"net/http"

	"github.com/shopspring/decimal"

	"tgwallet/models"
	"tgwallet/query"
	"tgwallet/web/common"
	"tgwallet/web/session"
)

type transactionView struct {
	ID              int64                  `json:"id"`
	TransactionType models.TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal        `json:"amount"`
	AmountText      string                 `json:"amount_text"`
	CreatedAt       models.Timestamp       `json:"created_at"`
	CreatedAtText   string                 `json:"created_at_text"`
}

func (f *Feature) handleTransactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	state := query.Fetch(r.Context(), sess.Store, query.Query[[]models.Transaction]{
		Key: session.KeyTransactions,
		Fn:  f.balanceService.Transactions,
	})

	common.RespondView(w, state, "", func(txs []models.Transaction) any {
		ordered := models.MostRecentFirst(txs)
		views := make([]transactionView, len(ordered))
		for i, tx := range ordered {
			views[i] = transactionView{
				ID:              tx.ID,
				TransactionType: tx.TransactionType,
				Amount:          tx.Amount,
				AmountText:      common.FormatSignedMoney(tx.Amount),
				CreatedAt:       tx.CreatedAt,
				CreatedAtText:   common.FormatTime(tx.CreatedAt.Time),
			}
		}
		return views
	})
}
