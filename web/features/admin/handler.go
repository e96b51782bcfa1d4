package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tgwallet/models"
	"tgwallet/query"
	"tgwallet/service"
	"tgwallet/web/common"
	"tgwallet/web/session"
)

// MessageUserNotFound replaces every lookup failure, including input that
// is not a Telegram ID
const MessageUserNotFound = "Пользователь не найден"

// maxLookups caps the cached lookups per operation in one session
const maxLookups = 20

type userView struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func renderUser(u *models.User) any {
	if u == nil {
		return nil
	}
	return userView{
		TelegramID: u.TelegramID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		CreatedAt:  common.FormatTime(u.CreatedAt.Time),
	}
}

func (f *Feature) handleFindByID(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	telegramID, parseErr := service.ParseTelegramID(q)

	// The key follows the raw input so every keystroke gets its own entry;
	// only valid IDs are ever sent upstream
	state := query.Fetch(r.Context(), sess.Store, query.Query[*models.User]{
		Key:     query.NewKey(session.OpUserByID, q),
		Enabled: func() bool { return parseErr == nil },
		Fn: func(ctx context.Context) (*models.User, error) {
			return f.userService.FindUserByID(ctx, telegramID)
		},
	})
	sess.Store.Trim(session.OpUserByID, maxLookups)

	if state.Status == query.StatusIdle {
		common.WriteJSON(w, http.StatusOK, common.ViewResponse{
			Status: query.StatusIdle,
			Error:  notFoundText(q),
		})
		return
	}
	common.RespondView(w, state, MessageUserNotFound, renderUser)
}

func (f *Feature) handleFindByUsername(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	username := strings.TrimPrefix(strings.TrimSpace(mux.Vars(r)["username"]), "@")
	state := query.Fetch(r.Context(), sess.Store, query.Query[*models.User]{
		Key:     query.NewKey(session.OpUserByUsername, username),
		Enabled: func() bool { return username != "" },
		Fn: func(ctx context.Context) (*models.User, error) {
			return f.userService.FindUserByUsername(ctx, username)
		},
	})
	sess.Store.Trim(session.OpUserByUsername, maxLookups)
	common.RespondView(w, state, MessageUserNotFound, renderUser)
}

// An empty search box shows nothing; anything else that is not an ID is a miss
func notFoundText(q string) string {
	if q == "" {
		return ""
	}
	return MessageUserNotFound
}
