package middleware

import (
	"net/http"
	"regexp"

	log "github.com/sirupsen/logrus"

	"tgwallet/models"
	"tgwallet/service"
)

const (
	HomePath  = "/"
	ErrorPath = "/error"
)

var referralPath = regexp.MustCompile(`\/ref\/(\d+)-(\d+)`)

// ReferralLinker binds the current user to the owner of a /ref/<A>-<B> link
type ReferralLinker struct {
	users     service.UserService
	referrals service.ReferralService
	linkBase  string
}

// NewReferralLinker creates the referral middleware. linkBase is prepended
// to the matched path to build the canonical referral link.
func NewReferralLinker(users service.UserService, referrals service.ReferralService, linkBase string) *ReferralLinker {
	return &ReferralLinker{
		users:     users,
		referrals: referrals,
		linkBase:  linkBase,
	}
}

// Handler returns the middleware handler
func (m *ReferralLinker) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		match := referralPath.FindString(r.URL.Path)
		if match == "" {
			next.ServeHTTP(w, r)
			return
		}

		http.Redirect(w, r, m.link(r, match), http.StatusTemporaryRedirect)
	})
}

// link performs the binding and returns where to send the user
func (m *ReferralLinker) link(r *http.Request, match string) string {
	ctx := r.Context()
	logger := log.WithFields(log.Fields{
		"request_id": RequestIDFromContext(ctx),
		"path":       match,
	})

	user, err := m.users.GetUser(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to resolve user for referral")
		return ErrorPath
	}
	if user == nil || user.TelegramID == 0 {
		logger.Warn("Current user has no telegram id")
		return ErrorPath
	}

	referralLink := m.linkBase + match
	result, err := m.referrals.CheckReferral(ctx, user.TelegramID, referralLink)
	if err != nil {
		logger.WithError(err).Warn("Referral check failed")
		return ErrorPath
	}

	// Both outcomes go home; the message is only logged
	if result.Message != models.ReferralBoundMessage {
		logger.WithFields(log.Fields{
			"telegram_id": user.TelegramID,
			"message":     result.Message,
		}).Info("Referral not bound")
	}
	return HomePath
}
