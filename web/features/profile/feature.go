package profile

import (
	"net/http"

	"github.com/gorilla/mux"

	"tgwallet/service"
)

type Feature struct {
	userService service.UserService
}

func New(userService service.UserService) *Feature {
	return &Feature{
		userService: userService,
	}
}

func (f *Feature) Register(r *mux.Router) {
	r.HandleFunc("/api/me", f.handleMe).Methods(http.MethodGet)
}
