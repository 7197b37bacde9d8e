package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// WhatsApp provider (Twilio) credentials
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioFromNumber   string
	TwilioValidateSig  bool
	TwilioSendTimeout  time.Duration
	TwilioWebhookURL   string
	CORSAllowedOrigins []string

	// SendGrid confirmation emails to the clinic desk
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	ClinicEmail       string

	AdminJWTSecret string

	// Availability grid
	ClinicTimezone  string
	HorizonDays     int
	SlotCapacity    int
	SlotMinutes     int
	OpenHour        int
	CloseHour       int
	SaturdayOpen    bool
	MaxListedDates  int
	MaxListedTimes  int
	ArchiveSessions bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:   getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioValidateSig:  getEnvAsBool("TWILIO_VALIDATE_SIGNATURE", true),
		TwilioSendTimeout:  getEnvAsDuration("TWILIO_SEND_TIMEOUT", 10*time.Second),
		TwilioWebhookURL:   getEnv("TWILIO_WEBHOOK_URL", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "OdontoSorriso"),
		ClinicEmail:       getEnv("CLINIC_EMAIL", ""),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		ClinicTimezone:  getEnv("CLINIC_TIMEZONE", "America/Sao_Paulo"),
		HorizonDays:     getEnvAsInt("AVAILABILITY_HORIZON_DAYS", 14),
		SlotCapacity:    getEnvAsInt("SLOT_CAPACITY", 1),
		SlotMinutes:     getEnvAsInt("SLOT_MINUTES", 30),
		OpenHour:        getEnvAsInt("CLINIC_OPEN_HOUR", 9),
		CloseHour:       getEnvAsInt("CLINIC_CLOSE_HOUR", 18),
		SaturdayOpen:    getEnvAsBool("CLINIC_SATURDAY_OPEN", true),
		MaxListedDates:  getEnvAsInt("MAX_LISTED_DATES", 5),
		MaxListedTimes:  getEnvAsInt("MAX_LISTED_TIMES", 6),
		ArchiveSessions: getEnvAsBool("ARCHIVE_SESSIONS", true),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
