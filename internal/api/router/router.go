package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/odontosorriso/booking-platform/internal/appointments"
	"github.com/odontosorriso/booking-platform/internal/http/handlers"
	httpmiddleware "github.com/odontosorriso/booking-platform/internal/http/middleware"
	"github.com/odontosorriso/booking-platform/internal/messaging"
	"github.com/odontosorriso/booking-platform/internal/webchat"
	"github.com/odontosorriso/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	WebhookHandler      *messaging.WebhookHandler
	WebchatHandler      *webchat.Handler
	AgentHandler        *webchat.AgentHandler
	AdminHandler        *handlers.AdminHandler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)

	// Inbound WhatsApp
	if cfg.WebhookHandler != nil {
		r.Post("/webhooks/whatsapp", cfg.WebhookHandler.ServeHTTP)
	}

	// Chat simulator (web widget)
	if cfg.WebchatHandler != nil {
		r.Get("/webchat", cfg.WebchatHandler.HandleWebSocket)
	}
	if cfg.AgentHandler != nil {
		r.Post("/agent", cfg.AgentHandler.ServeHTTP)
	}

	// Web booking form
	if cfg.AppointmentsHandler != nil {
		r.Route("/api", func(api chi.Router) {
			api.Get("/availability", cfg.AppointmentsHandler.Availability)
			api.Route("/appointments", func(appts chi.Router) {
				appts.Post("/", cfg.AppointmentsHandler.Create)
				appts.Get("/", cfg.AppointmentsHandler.List)
				appts.Get("/{id}", cfg.AppointmentsHandler.Get)
				appts.Post("/{id}/cancel", cfg.AppointmentsHandler.Cancel)
			})
		})
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Staff views, JWT-protected
	if cfg.AdminHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/sessions", cfg.AdminHandler.ListSessions)
			admin.Get("/sessions/{phone}", cfg.AdminHandler.GetSession)
			if cfg.AppointmentsHandler != nil {
				admin.Get("/appointments", cfg.AppointmentsHandler.List)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
