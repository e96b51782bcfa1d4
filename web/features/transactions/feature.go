package transactions

import (
	"net/http"

	"github.com/gorilla/mux"

	"tgwallet/service"
)

type Feature struct {
	balanceService service.BalanceService
}

func New(balanceService service.BalanceService) *Feature {
	return &Feature{
		balanceService: balanceService,
	}
}

func (f *Feature) Register(r *mux.Router) {
	r.HandleFunc("/api/transactions", f.handleTransactions).Methods(http.MethodGet)
}
