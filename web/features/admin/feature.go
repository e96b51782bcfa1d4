package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"tgwallet/service"
)

// Feature serves the user lookup tools of the admin screen
type Feature struct {
	userService service.UserService
}

func New(userService service.UserService) *Feature {
	return &Feature{
		userService: userService,
	}
}

func (f *Feature) Register(r *mux.Router) {
	r.HandleFunc("/api/admin/users", f.handleFindByID).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/users/by-username/{username}", f.handleFindByUsername).Methods(http.MethodGet)
}
