package main

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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/example/ride-booking-bot/internal/chat"
	"github.com/example/ride-booking-bot/internal/config"
	"github.com/example/ride-booking-bot/internal/dialogue"
	"github.com/example/ride-booking-bot/internal/dispatch"
	"github.com/example/ride-booking-bot/internal/events"
	"github.com/example/ride-booking-bot/internal/geo"
	"github.com/example/ride-booking-bot/internal/geocoding"
	httpapi "github.com/example/ride-booking-bot/internal/http"
	"github.com/example/ride-booking-bot/internal/ledger"
	"github.com/example/ride-booking-bot/internal/logging"
	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/pricing"
	"github.com/example/ride-booking-bot/internal/reminder"
	"github.com/example/ride-booking-bot/internal/routing"
	"github.com/example/ride-booking-bot/internal/session"
	"github.com/example/ride-booking-bot/internal/storage"
)

func main() {
	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ride booking bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) error {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	}()

	sender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}
	geocoder, err := newGeocoder(cfg)
	if err != nil {
		return err
	}
	router := newRouter(cfg)

	var operators geo.Store = geo.NewIndex()
	if cfg.RedisAddr != "" {
		rg := geo.NewRedisGeo(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		if err := rg.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, rg.Close)
		operators = rg
	}

	var sinks []ledger.Sink
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		closers = append(closers, ps.Close)
		if cfg.RunMigrations {
			if err := ps.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("migrations applied")
		}
		sinks = append(sinks, ps)
	}
	var publisher httpapi.LocationPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaRideTopic, cfg.KafkaLocationTopic)
		closers = append(closers, kp.Close)
		sinks = append(sinks, kp)
		publisher = kp
	}

	loc := cfg.Location()
	rides := ledger.New(logger, nil, sinks...)
	sessions := session.NewStore(cfg.SessionIdleTimeout, nil)
	locks := session.NewKeyedMutex()
	reminders := reminder.NewIndex()
	wsreg := dispatch.NewWSRegistry()
	notifier := &dispatch.Notifier{
		Sender:   sender,
		Contact:  cfg.OperatorContact,
		WS:       wsreg,
		Endpoint: cfg.OperatorWebhook,
		Location: loc,
	}
	if cfg.OperatorContact == "" {
		logger.Warn("OPERATOR_CONTACT not set, operator only notified on consoles")
	}

	tracker := &geo.Tracker{
		Store:      operators,
		OperatorID: cfg.OperatorID,
		Default:    models.Coord{Lat: cfg.OperatorLat, Lon: cfg.OperatorLon},
		Logger:     logger.With("component", "tracker"),
	}
	tracker.Bootstrap(ctx, geocoding.NewIPAPIClient(), cfg.OperatorIP)

	controller := dialogue.New(dialogue.Deps{
		Sessions:       sessions,
		Locks:          locks,
		Ledger:         rides,
		Reminders:      reminders,
		Geocoder:       geocoder,
		Router:         router,
		Operator:       tracker,
		Pricer:         pricing.Pricer{BaseFare: cfg.BaseFare, PerKmRate: cfg.PerKmRate, MinimumFare: cfg.MinimumFare, Currency: cfg.Currency},
		Notifier:       notifier,
		Sender:         sender,
		StartKeywords:  cfg.StartKeywords,
		CancelKeywords: cfg.CancelKeywords,
		Location:       loc,
		Logger:         logger,
	})

	scheduler := &reminder.Scheduler{
		Index:    reminders,
		Ledger:   rides,
		Sender:   sender,
		Operator: notifier,
		Locks:    locks,
		Period:   cfg.ReminderTick,
		Lead:     cfg.ReminderLead,
		Now:      time.Now,
		Logger:   logger.With("component", "reminders"),
	}

	deps := httpapi.Deps{
		Dialogue:    controller,
		Operators:   operators,
		OperatorID:  cfg.OperatorID,
		Geocoder:    geocoder,
		Publisher:   publisher,
		Rides:       rides,
		WSReg:       wsreg,
		TwilioFrom:  cfg.TwilioFrom,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
	}
	if cfg.ChatTransport == "twilio" {
		deps.TwilioAuthToken = cfg.TwilioAuthToken
		deps.TwilioWebhookURL = cfg.TwilioWebhookURL
	}
	api := httpapi.NewServer(deps)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("ride booking bot listening", "addr", cfg.HTTPAddr, "transport", cfg.ChatTransport,
			"geocoder", cfg.GeocoderProvider, "router", cfg.RouterProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return scheduler.Run(gctx) })
	if cfg.SessionIdleTimeout > 0 {
		g.Go(func() error { return runJanitor(gctx, sessions, cfg.SessionIdleTimeout, logger) })
	}
	return g.Wait()
}

func newSender(cfg config.ServerConfig, logger *slog.Logger) (chat.Sender, error) {
	switch cfg.ChatTransport {
	case "twilio":
		return chat.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom), nil
	case "log":
		return chat.LogSender{Logger: logger.With("component", "chat")}, nil
	}
	return nil, fmt.Errorf("unknown chat transport %q", cfg.ChatTransport)
}

func newGeocoder(cfg config.ServerConfig) (geocoding.Geocoder, error) {
	switch cfg.GeocoderProvider {
	case "google":
		return geocoding.NewGoogleGeocoder(cfg.GoogleMapsAPIKey, cfg.GeocoderLanguage, cfg.GeocoderLimit)
	case "opencage":
		return geocoding.NewOpenCageClient(cfg.OpenCageAPIKey, cfg.GeocoderLanguage, cfg.GeocoderLimit), nil
	}
	return nil, fmt.Errorf("unknown geocoder %q", cfg.GeocoderProvider)
}

func newRouter(cfg config.ServerConfig) routing.Router {
	var r routing.Router
	switch cfg.RouterProvider {
	case "osrm":
		r = routing.NewOSRMClient(cfg.OSRMEndpoint)
	case "ors":
		r = routing.NewORSClient(cfg.ORSAPIKey)
	default:
		r = routing.StraightLine{SpeedKmh: cfg.StraightLineSpeedKh}
	}
	if cfg.RouteCacheTTL > 0 {
		r = routing.NewCache(r, cfg.RouteCacheTTL)
	}
	return r
}

// runJanitor drops idle sessions so abandoned bookings do not pile up.
func runJanitor(ctx context.Context, sessions *session.Store, idle time.Duration, logger *slog.Logger) error {
	period := idle / 2
	if period < time.Minute {
		period = time.Minute
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Info("expired idle sessions", "count", n)
			}
		}
	}
}
