package referrals

import (
	"net/http"

	"github.com/gorilla/mux"

	"tgwallet/service"
)

type Feature struct {
	referralService service.ReferralService
}

func New(referralService service.ReferralService) *Feature {
	return &Feature{
		referralService: referralService,
	}
}

func (f *Feature) Register(r *mux.Router) {
	r.HandleFunc("/api/referrals", f.handleReferrals).Methods(http.MethodGet)
}
