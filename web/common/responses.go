package common

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"tgwallet/query"
	"tgwallet/service"
	"tgwallet/web/session"
)

// ViewResponse is the body of every read view
type ViewResponse struct {
	Status query.Status `json:"status"`
	Data   any          `json:"data,omitempty"`
	Error  string       `json:"error,omitempty"`
	Stale  bool         `json:"stale,omitempty"`
}

// MutationResponse is the body of every mutation. Mutations always answer 200.
type MutationResponse struct {
	OK            bool                   `json:"ok"`
	Data          any                    `json:"data,omitempty"`
	Notifications []service.Notification `json:"notifications"`
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Error writing JSON response: %v", err)
	}
}

// RespondView renders a query state. fallback replaces the error text shown
// to the user when set.
func RespondView[T any](w http.ResponseWriter, state query.State[T], fallback string, render func(T) any) {
	resp := ViewResponse{Status: state.Status, Stale: state.Stale}

	if state.HasData {
		if render != nil {
			resp.Data = render(state.Data)
		} else {
			resp.Data = state.Data
		}
	}

	if state.Err != nil {
		resp.Error = fallback
		if resp.Error == "" {
			resp.Error = service.ErrorMessage(state.Err)
		}
		log.WithError(state.Err).WithField("status", state.Status).Debug("View rendered with error")
	}

	WriteJSON(w, http.StatusOK, resp)
}

// RespondMutation renders a mutation result and the session's pending notifications
func RespondMutation[T any](w http.ResponseWriter, result service.Result[T], notifications []service.Notification) {
	resp := MutationResponse{OK: result.OK(), Notifications: notifications}
	if result.OK() {
		resp.Data = result.Value
	}
	if resp.Notifications == nil {
		resp.Notifications = []service.Notification{}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// RespondWithError logs the error and writes its user message
func RespondWithError(w http.ResponseWriter, r *http.Request, err *ViewError) {
	entry := log.WithFields(log.Fields{
		"path":   r.URL.Path,
		"status": err.Status,
	})
	if err.Err != nil {
		entry = entry.WithError(err.Err)
	}
	entry.Warn(err.LogMessage)

	WriteJSON(w, err.Status, ViewResponse{Status: query.StatusError, Error: err.UserMessage})
}

// RequireSession returns the request's session or answers 401
func RequireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := session.FromContext(r.Context())
	if s == nil {
		RespondWithError(w, r, NoSession())
		return nil, false
	}
	return s, true
}
