// Package middleware holds the navigation middleware of the web surface:
// auth handoff, referral binding, auth gate, request logging and rate limiting.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"tgwallet/auth"
)

const (
	// AuthCookie holds the token handed over by the bot
	AuthCookie = "auth"

	authCookieMaxAge = 365 * 24 * time.Hour
)

// AuthHandoff stores the token of /auth?token=<t> in the auth cookie and
// redirects to /. Every other request passes through.
func AuthHandoff(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if r.URL.Path != "/auth" || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     AuthCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(authCookieMaxAge.Seconds()),
				Expires:  time.Now().Add(authCookieMaxAge),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			log.WithField("request_id", RequestIDFromContext(r.Context())).Debug("Stored auth token from handoff")
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		})
	}
}

// TokenFromRequest returns the auth cookie value, if any
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(AuthCookie)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// AuthToken puts the auth cookie value on the request context, where
// auth.ContextResolver finds it
func AuthToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := TokenFromRequest(r); token != "" {
			r = r.WithContext(auth.WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// AuthPrompt is the body returned to unauthenticated requests
type AuthPrompt struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	BotURL  string `json:"bot_url,omitempty"`
	Message string `json:"message"`
}

// AuthGate rejects requests without an auth token, except on public paths.
// A public path ending in "/" matches as a prefix.
func AuthGate(botURL string, publicPaths ...string) func(http.Handler) http.Handler {
	exact := make(map[string]bool)
	var prefixes []string
	for _, p := range publicPaths {
		if strings.HasSuffix(p, "/") {
			prefixes = append(prefixes, p)
		} else {
			exact[p] = true
		}
	}

	isPublic := func(path string) bool {
		if exact[path] {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := auth.TokenFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			WriteAuthPrompt(w, botURL)
		})
	}
}

// WriteAuthPrompt answers 401 with the prompt to open the app through the bot
func WriteAuthPrompt(w http.ResponseWriter, botURL string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(AuthPrompt{
		Status:  "unauthenticated",
		Error:   auth.ErrAuthUnavailable.Error(),
		BotURL:  botURL,
		Message: "Откройте приложение через бота, чтобы авторизоваться",
	})
}
