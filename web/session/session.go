// Package session keeps one query cache and notification queue per auth token.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tgwallet/auth"
	"tgwallet/events"
	"tgwallet/metrics"
	"tgwallet/query"
	"tgwallet/service"
)

const maxQueuedNotifications = 20

// Session is the server-side state of one Mini App user
type Session struct {
	ID    string // Derived from the token, safe to log
	Store *query.Store

	publisher events.Publisher

	mu            sync.Mutex
	notifications []service.Notification
	lastSeen      time.Time
}

// Notify queues a notification for the next response and publishes it
func (s *Session) Notify(ctx context.Context, level events.NotificationLevel, message string) {
	s.mu.Lock()
	s.notifications = append(s.notifications, service.Notification{Level: level, Message: message})
	if len(s.notifications) > maxQueuedNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxQueuedNotifications:]
	}
	s.mu.Unlock()

	service.EventNotifier{Publisher: s.publisher, SessionID: s.ID}.Notify(ctx, level, message)
}

// DrainNotifications returns and clears the queued notifications
func (s *Session) DrainNotifications() []service.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.notifications
	s.notifications = nil
	if out == nil {
		out = []service.Notification{}
	}
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// RegistryConfig configures a Registry
type RegistryConfig struct {
	TTL       time.Duration
	StaleTime time.Duration
	Metrics   *metrics.Metrics
	Publisher events.Publisher
}

// Registry holds the live sessions
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      RegistryConfig
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		now:      time.Now,
	}
}

// ID derives the session ID of a token
func ID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// Get returns the session for token, creating it if needed
func (r *Registry) Get(token string) *Session {
	id := ID(token)
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{
			ID: id,
			Store: query.NewStore(query.Options{
				SessionID: id,
				StaleTime: r.cfg.StaleTime,
				Metrics:   r.cfg.Metrics,
				Publisher: r.cfg.Publisher,
			}),
			publisher: r.cfg.Publisher,
		}
		r.sessions[id] = s
		r.cfg.Metrics.SetSessions(len(r.sessions))
		log.WithField("session", id).Debug("Created session")
	}
	r.mu.Unlock()

	s.touch(now)
	return s
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL
func (r *Registry) Sweep() int {
	if r.cfg.TTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.cfg.TTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			s.Store.Clear()
			delete(r.sessions, id)
			removed++
		}
	}
	r.cfg.Metrics.SetSessions(len(r.sessions))
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					log.WithFields(log.Fields{
						"removed":   n,
						"remaining": r.Len(),
					}).Info("Swept idle sessions")
				}
			}
		}
	}()
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session attached by Middleware
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// Middleware attaches the session of the request's auth token. It must run
// after the token has been put on the context.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if token, ok := auth.TokenFromContext(req.Context()); ok {
			req = req.WithContext(WithSession(req.Context(), r.Get(token)))
		}
		next.ServeHTTP(w, req)
	})
}
