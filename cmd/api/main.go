package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/odontosorriso/booking-platform/internal/api/router"
	"github.com/odontosorriso/booking-platform/internal/appointments"
	"github.com/odontosorriso/booking-platform/internal/availability"
	"github.com/odontosorriso/booking-platform/internal/booking"
	"github.com/odontosorriso/booking-platform/internal/clinic"
	appconfig "github.com/odontosorriso/booking-platform/internal/config"
	"github.com/odontosorriso/booking-platform/internal/dialogue"
	"github.com/odontosorriso/booking-platform/internal/http/handlers"
	"github.com/odontosorriso/booking-platform/internal/messaging"
	"github.com/odontosorriso/booking-platform/internal/notify"
	"github.com/odontosorriso/booking-platform/internal/observability/metrics"
	"github.com/odontosorriso/booking-platform/internal/session"
	"github.com/odontosorriso/booking-platform/internal/webchat"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting odontosorriso booking platform",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "tz", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}
	hours := clinic.Hours{
		Location:     loc,
		OpenHour:     cfg.OpenHour,
		CloseHour:    cfg.CloseHour,
		SlotMinutes:  cfg.SlotMinutes,
		SaturdayOpen: cfg.SaturdayOpen,
		HorizonDays:  cfg.HorizonDays,
	}

	ledger := availability.NewLedger(hours, cfg.SlotCapacity)

	// Session store: Redis when configured, otherwise in-process.
	var sessionStore session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		sessionStore = session.NewRedisStore(client, nil)
		logger.Info("session store: redis", "addr", cfg.RedisAddr)
	} else {
		sessionStore = session.NewMemoryStore()
		logger.Info("session store: in-memory")
	}

	// PostgreSQL: appointment rows over pgx, transcript archive over
	// database/sql. Both optional.
	var apptRepo appointments.Repository = appointments.NewInMemoryRepository()
	var archive *session.Archive
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		apptRepo = appointments.NewPostgresRepository(pool)
		logger.Info("appointment store: postgres")

		if cfg.ArchiveSessions {
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				logger.Error("failed to open archive db", "error", err)
				os.Exit(1)
			}
			defer func() { _ = db.Close() }()
			archive = session.NewArchive(db)
			logger.Info("transcript archive: postgres")
		}
	} else {
		logger.Info("appointment store: in-memory")
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	notifier := notify.NewBookingNotifier(sender, cfg.ClinicEmail, hours, logger)

	service := appointments.NewService(apptRepo, ledger, hours, logger).WithMetrics(bookingMetrics)
	if notifier != nil {
		service = service.WithNotifier(notifier)
	}

	machine := dialogue.NewMachine(hours, ledger, cfg.MaxListedDates, cfg.MaxListedTimes)
	orchestrator := booking.NewOrchestrator(sessionStore, machine, ledger, service, archive, bookingMetrics, logger)

	// Outbound WhatsApp: Twilio when credentials exist, log-only stub
	// otherwise.
	var provider messaging.Provider
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		provider = messaging.NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioSendTimeout, logger)
		logger.Info("whatsapp provider: twilio")
	} else {
		provider = messaging.NewStubProvider(logger)
		logger.Info("whatsapp provider: stub")
	}

	webhookURL := cfg.TwilioWebhookURL
	if webhookURL == "" && cfg.PublicBaseURL != "" {
		webhookURL = cfg.PublicBaseURL + "/webhooks/whatsapp"
	}
	webhookHandler := messaging.NewWebhookHandler(orchestrator, provider, messaging.WebhookConfig{
		ValidateSignature: cfg.TwilioValidateSig,
		AuthToken:         cfg.TwilioAuthToken,
		WebhookURL:        webhookURL,
	}, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(orchestrator, service, ledger, logger),
		WebhookHandler:      webhookHandler,
		WebchatHandler:      webchat.NewHandler(orchestrator, sessionStore, logger),
		AgentHandler:        webchat.NewAgentHandler(orchestrator, logger),
		AdminHandler:        handlers.NewAdminHandler(sessionStore, archive, logger),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
