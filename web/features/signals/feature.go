package signals

import (
	"net/http"

	"github.com/gorilla/mux"

	"tgwallet/service"
)

type Feature struct {
	signalService service.SignalService
	userService   service.UserService
}

func New(signalService service.SignalService, userService service.UserService) *Feature {
	return &Feature{
		signalService: signalService,
		userService:   userService,
	}
}

func (f *Feature) Register(r *mux.Router) {
	r.HandleFunc("/api/signals", f.handleActiveSignals).Methods(http.MethodGet)
	r.HandleFunc("/api/signals/join", f.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/api/signals/custom", f.handleCreateCustom).Methods(http.MethodPost)
	r.HandleFunc("/api/signals/random", f.handleCreateRandom).Methods(http.MethodPost)
}
