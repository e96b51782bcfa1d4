// Package web serves the Mini App's JSON views and mutations.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"tgwallet/auth"
	"tgwallet/events"
	"tgwallet/metrics"
	"tgwallet/middleware"
	"tgwallet/query"
	"tgwallet/service"
	"tgwallet/web/common"
	"tgwallet/web/features/admin"
	"tgwallet/web/features/balance"
	"tgwallet/web/features/profile"
	"tgwallet/web/features/referrals"
	"tgwallet/web/features/signals"
	"tgwallet/web/features/transactions"
	"tgwallet/web/session"
)

// MessageReferralFailed is shown on the error page a failed referral link lands on
const MessageReferralFailed = "Не удалось обработать ссылку. Попробуйте открыть приложение ещё раз"

// publicPaths are reachable without the auth cookie
var publicPaths = []string{"/", "/auth", "/ref/", "/error", "/health", "/metrics"}

// Config holds the web server configuration
type Config struct {
	ListenAddr       string
	BotURL           string
	ReferralLinkBase string
	CookieSecure     bool
	RateLimitRPS     float64
	RateLimitBurst   int
	StaleTime        time.Duration
	SessionTTL       time.Duration
}

// Services are the domain services the features call
type Services struct {
	Users     service.UserService
	Balances  service.BalanceService
	Signals   service.SignalService
	Referrals service.ReferralService
}

// Server represents the Mini App backend-for-frontend
type Server struct {
	config   Config
	router   *mux.Router
	handler  http.Handler
	registry *session.Registry
	limiter  *middleware.RateLimiter
	metrics  *metrics.Metrics
	server   *http.Server
}

// feature is implemented by every package under features/
type feature interface {
	Register(r *mux.Router)
}

// New creates a server with every route and middleware registered
func New(cfg Config, services Services, m *metrics.Metrics, publisher events.Publisher) *Server {
	s := &Server{
		config: cfg,
		router: mux.NewRouter(),
		registry: session.NewRegistry(session.RegistryConfig{
			TTL:       cfg.SessionTTL,
			StaleTime: cfg.StaleTime,
			Metrics:   m,
			Publisher: publisher,
		}),
		metrics: m,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	s.setupMiddleware(services)
	s.setupRoutes(services)
	return s
}

// setupMiddleware wraps the router in the navigation chain. mux runs Use
// middleware only on matched routes; the handoff and referral links must
// fire on any path and method.
func (s *Server) setupMiddleware(services Services) {
	s.router.Use(s.metrics.Middleware())
	s.router.Use(middleware.AuthGate(s.config.BotURL, publicPaths...))

	chain := []func(http.Handler) http.Handler{
		middleware.RequestLogger,
	}
	if s.limiter != nil {
		chain = append(chain, s.limiter.Handler)
	}
	chain = append(chain,
		middleware.AuthHandoff(s.config.CookieSecure),
		middleware.AuthToken,
		s.registry.Middleware,
		middleware.NewReferralLinker(services.Users, services.Referrals, s.config.ReferralLinkBase).Handler,
	)

	var h http.Handler = s.router
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	s.handler = h
}

func (s *Server) setupRoutes(services Services) {
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/auth", s.handleAuth).Methods(http.MethodGet)
	s.router.HandleFunc("/error", s.handleError).Methods(http.MethodGet)

	features := []feature{
		profile.New(services.Users),
		balance.New(services.Balances),
		transactions.New(services.Balances),
		signals.New(services.Signals, services.Users),
		referrals.New(services.Referrals),
		admin.New(services.Users),
	}
	for _, f := range features {
		f.Register(s.router)
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the session registry
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// Start starts the background workers and begins serving. It returns once
// the listener is running; serving errors are logged.
func (s *Server) Start(ctx context.Context) error {
	if s.server != nil {
		return errors.New("server already started")
	}

	if s.config.SessionTTL > 0 {
		s.registry.StartSweeper(ctx, s.config.SessionTTL/2)
	}
	if s.limiter != nil {
		s.limiter.StartCleanup(ctx, 5*time.Minute)
	}

	s.server = &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Infof("Web server listening on %s", s.config.ListenAddr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Web server error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, authenticated := auth.TokenFromContext(r.Context())
	common.WriteJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"authenticated": authenticated,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleAuth is reached only when /auth carries no token
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	middleware.WriteAuthPrompt(w, s.config.BotURL)
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, common.ViewResponse{
		Status: query.StatusError,
		Error:  MessageReferralFailed,
	})
}
