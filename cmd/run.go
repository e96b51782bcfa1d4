package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"tgwallet/apiclient"
	"tgwallet/auth"
	"tgwallet/config"
	"tgwallet/events"
	"tgwallet/metrics"
	"tgwallet/service"
	"tgwallet/web"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	cfg.ConfigureLogging()

	log.Info("Starting wallet web server...")

	// Initialize metrics
	appMetrics := metrics.New()

	// Initialize event bus
	log.Info("Initializing event bus...")
	eventBus := events.NewBus()
	events.LogSubscriber(eventBus,
		events.EventTypeNotification,
		events.EventTypeMutationCompleted,
		events.EventTypeReferralChecked,
	)
	log.Info("Event bus initialized successfully")

	// Initialize backend client
	log.WithField("base_url", cfg.APIBaseURL).Info("Initializing backend client...")
	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		Metrics: appMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	// The request's auth cookie wins; the static token only serves local development
	tokens := auth.ChainResolver{auth.ContextResolver{}}
	if cfg.AuthToken != "" {
		if cfg.IsProduction() {
			log.Warn("AUTH_TOKEN is set in production; requests without a cookie will use it")
		}
		tokens = append(tokens, auth.StaticResolver(cfg.AuthToken))
	}

	// Initialize services
	log.Info("Initializing services...")
	userService := service.NewUserService(client, tokens)
	balanceService := service.NewBalanceService(client, userService)
	signalService := service.NewSignalService(client, userService)
	referralService := service.NewReferralService(client, userService, eventBus)
	log.Info("Services initialized successfully")

	// Initialize web server
	server := web.New(web.Config{
		ListenAddr:       cfg.ListenAddr,
		BotURL:           cfg.BotURL,
		ReferralLinkBase: cfg.ReferralLinkBase,
		CookieSecure:     cfg.CookieSecure,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		StaleTime:        cfg.CacheStaleTime,
		SessionTTL:       cfg.SessionTTL,
	}, web.Services{
		Users:     userService,
		Balances:  balanceService,
		Signals:   signalService,
		Referrals: referralService,
	}, appMetrics, eventBus)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}

	// Wait for context cancellation
	log.Infof("Web server is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down web server...")

	// Give in-flight requests time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down web server: %v", err)
		return err
	}

	log.Info("Shutdown completed")
	return nil
}
