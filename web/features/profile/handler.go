package profile

import (
	"net/http"

	"tgwallet/models"
	"tgwallet/web/common"
	"tgwallet/web/session"
)

type meView struct {
	*models.User
	DisplayName string `json:"display_name"`
}

func (f *Feature) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	state := session.CurrentUser(r.Context(), sess, f.userService)
	common.RespondView(w, state, "", func(u *models.User) any {
		if u == nil {
			return nil
		}
		return meView{User: u, DisplayName: displayName(u)}
	})
}

func displayName(u *models.User) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return ""
	}
}
