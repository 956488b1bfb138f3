// Package app wires configuration, storage, transports and observability
// into a runnable server and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/activity"
	"github.com/garyellow/interview-linebot-go/internal/availability"
	"github.com/garyellow/interview-linebot-go/internal/bot"
	"github.com/garyellow/interview-linebot-go/internal/buildinfo"
	"github.com/garyellow/interview-linebot-go/internal/card"
	"github.com/garyellow/interview-linebot-go/internal/config"
	"github.com/garyellow/interview-linebot-go/internal/logger"
	"github.com/garyellow/interview-linebot-go/internal/metrics"
	"github.com/garyellow/interview-linebot-go/internal/ratelimit"
	"github.com/garyellow/interview-linebot-go/internal/sentry"
	"github.com/garyellow/interview-linebot-go/internal/webhook"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const projectURL = "https://github.com/garyellow/interview-linebot-go"

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	store          availability.Store
	closeStore     func() error
	cards          catalogs
	lineCards      *card.Catalog
	adaptiveCards  *card.Catalog
	webhookHandler *webhook.Handler
	server         *http.Server
}

// components are the parts Initialize builds from the environment and
// tests replace.
type components struct {
	logger     *logger.Logger
	registry   *prometheus.Registry
	store      availability.Store
	closeStore func() error
	lineClient webhook.Client // nil builds a Messaging API client
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log = log.WithField("service", "interview-linebot-go").WithField("version", buildinfo.Release())
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	// Package-level slog.*Context calls pick up the context values too.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	store, closeStore, err := openStore(ctx, cfg, m, log)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	app, err := build(cfg, m, components{
		logger:     log,
		registry:   registry,
		store:      store,
		closeStore: closeStore,
	})
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, config.StartupCheck)
	defer cancel()
	if err := app.cards.Verify(checkCtx); err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("cards: %w", err)
	}
	if err := store.Ping(checkCtx); err != nil {
		log.WithError(err).Warn("Availability store not reachable yet")
	}

	log.Info("Initialization complete")
	return app, nil
}

// build assembles handlers, router and server around already opened components.
func build(cfg *config.Config, m *metrics.Metrics, c components) (*Application, error) {
	log := c.logger
	lineCards := card.NewCatalog(cfg.LineCardsDir(), m)
	adaptiveCards := card.NewCatalog(cfg.AdaptiveCardsDir(), m)

	cards := catalogs{lineCards}
	if cfg.ActivityEnabled {
		cards = append(cards, adaptiveCards)
	}

	dispatcher, err := bot.NewDispatcher(bot.DispatcherConfig{
		Store:         c.store,
		Cards:         cards,
		Key:           cfg.InterviewKey,
		CandidateName: cfg.CandidateName,
		Logger:        log,
		Metrics:       m,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret:  cfg.LineChannelSecret,
		ChannelToken:   cfg.LineChannelToken,
		Client:         c.lineClient,
		Dispatcher:     dispatcher,
		Cards:          lineCards,
		Metrics:        m,
		Logger:         log,
		ReplyLimiter:   ratelimit.NewReplyLimiter(cfg.GlobalRateRPS, config.ReplyMaxWait, m),
		WebhookTimeout: cfg.WebhookTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}

	app := &Application{
		cfg:            cfg,
		logger:         log,
		metrics:        m,
		registry:       c.registry,
		store:          c.store,
		closeStore:     c.closeStore,
		cards:          cards,
		lineCards:      lineCards,
		adaptiveCards:  adaptiveCards,
		webhookHandler: webhookHandler,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	router.GET("/", app.redirectToProject)
	router.GET("/livez", app.livenessCheck)
	router.HEAD("/livez", app.livenessCheck)
	router.GET("/readyz", app.readinessCheck)
	router.HEAD("/readyz", app.readinessCheck)
	router.POST("/webhook", webhookHandler.Handle)
	router.GET("/metrics",
		basicAuthMiddleware("metrics", cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))

	if cfg.ActivityEnabled {
		activityHandler := activity.NewHandler(dispatcher, adaptiveCards, m, log, cfg.WebhookTimeout)
		router.POST("/api/messages",
			basicAuthMiddleware("activity", cfg.ActivityUsername, cfg.ActivityPassword),
			activityHandler.Handle)
		log.Info("Activity endpoint enabled")
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gzhttp.GzipHandler(router),
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	return app, nil
}

// Handler returns the root HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) redirectToProject(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, projectURL)
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "store unavailable",
		})
		return
	}

	if err := a.cards.Verify(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: cards unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "cards unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"store":   a.cfg.StoreBackend,
		"version": buildinfo.Release(),
	})
}

// Run serves HTTP until SIGINT/SIGTERM or a server failure, then shuts down.
func (a *Application) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server error")
		runErr = fmt.Errorf("http server: %w", err)
	}

	a.shutdown()
	return runErr
}

// shutdown stops accepting requests, waits for in-flight LINE events, then
// releases the store and flushes telemetry.
func (a *Application) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
	}

	if err := a.closeStore(); err != nil {
		a.logger.WithError(err).WithField("component", "store").Error("Component close error")
	}

	sentry.Flush(2 * time.Second)

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
	}
}

// catalogs checks a card in every catalog a transport renders from.
type catalogs []*card.Catalog

// Exists implements bot.CardChecker.
func (cs catalogs) Exists(name card.Name) error {
	for _, c := range cs {
		if err := c.Exists(name); err != nil {
			return err
		}
	}
	return nil
}

// Verify loads every card of every catalog.
func (cs catalogs) Verify(ctx context.Context) error {
	for _, c := range cs {
		if err := c.Verify(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.Dir(), err)
		}
	}
	return nil
}
