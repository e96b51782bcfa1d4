package balance

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
	r.HandleFunc("/api/balance", f.handleBalance).Methods(http.MethodGet)
	r.HandleFunc("/api/work", f.handleWork).Methods(http.MethodGet)
	r.HandleFunc("/api/balance/transfer-to-trading", f.handleTransferToTrading).Methods(http.MethodPost)
	r.HandleFunc("/api/balance/transfer-to-main", f.handleTransferToMain).Methods(http.MethodPost)
	r.HandleFunc("/api/balance/deposit", f.handleDeposit).Methods(http.MethodPost)
}
