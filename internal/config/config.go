package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// ServerConfig captures all tunable parameters for the booking bot process.
// Values are loaded from environment variables with defaults that let the
// binary run locally with the log transport and the straight-line router.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LogLevel string
	Timezone string

	StartKeywords  []string
	CancelKeywords []string

	BaseFare    float64
	PerKmRate   float64
	MinimumFare float64
	Currency    string

	ReminderTick       time.Duration
	ReminderLead       time.Duration
	SessionIdleTimeout time.Duration

	OperatorContact string
	OperatorID      string
	OperatorIP      string
	OperatorLat     float64
	OperatorLon     float64
	OperatorWebhook string

	ChatTransport    string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioWebhookURL string

	GeocoderProvider string
	OpenCageAPIKey   string
	GoogleMapsAPIKey string
	GeocoderLimit    int
	GeocoderLanguage string

	RouterProvider      string
	OSRMEndpoint        string
	ORSAPIKey           string
	RouteCacheTTL       time.Duration
	StraightLineSpeedKh float64

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string

	KafkaBrokers       []string
	KafkaRideTopic     string
	KafkaLocationTopic string

	PGDSN         string
	RunMigrations bool

	CORSAllowedOrigins []string
}

// DefaultStartKeywords open a conversation from IDLE.
var DefaultStartKeywords = []string{
	"chamar carro", "chamar um carro", "pedir carro", "quero um carro", "preciso de carro",
	"corrida", "nova corrida", "solicitar", "oi", "olá", "ola", "começar", "iniciar",
	"ride", "book a ride", "taxi", "hello", "start",
}

// DefaultCancelKeywords abort a conversation from any other state.
var DefaultCancelKeywords = []string{
	"cancelar", "cancela", "desistir", "desisto", "não quero mais", "nao quero mais",
	"esquece", "esquecer", "cancel",
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:            ":8080",
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        30 * time.Second,
		IdleTimeout:         120 * time.Second,
		ShutdownTimeout:     15 * time.Second,
		LogLevel:            "info",
		Timezone:            "America/Sao_Paulo",
		StartKeywords:       DefaultStartKeywords,
		CancelKeywords:      DefaultCancelKeywords,
		BaseFare:            5.0,
		PerKmRate:           3.5,
		MinimumFare:         10.0,
		Currency:            "R$",
		ReminderTick:        5 * time.Minute,
		ReminderLead:        time.Hour,
		OperatorID:          "operator",
		OperatorIP:          "auto",
		OperatorLat:         -23.5505,
		OperatorLon:         -46.6333,
		ChatTransport:       "log",
		GeocoderProvider:    "opencage",
		GeocoderLimit:       5,
		GeocoderLanguage:    "pt",
		RouterProvider:      "straight",
		RouteCacheTTL:       10 * time.Minute,
		StraightLineSpeedKh: 30,
		RedisGeoKey:         "operators_geo",
		KafkaRideTopic:      "ride-events",
		KafkaLocationTopic:  "operator-locations",
		CORSAllowedOrigins:  []string{"*"},
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	setStringFromEnv(&cfg.Timezone, "TIMEZONE")

	setListFromEnv(&cfg.StartKeywords, "START_KEYWORDS")
	setListFromEnv(&cfg.CancelKeywords, "CANCEL_KEYWORDS")

	setFloatFromEnv(&cfg.BaseFare, "PRICING_BASE_FARE", &errs)
	setFloatFromEnv(&cfg.PerKmRate, "PRICING_PER_KM", &errs)
	setFloatFromEnv(&cfg.MinimumFare, "PRICING_MINIMUM_FARE", &errs)
	setStringFromEnv(&cfg.Currency, "PRICING_CURRENCY")

	setDurationFromEnv(&cfg.ReminderTick, "REMINDER_TICK", &errs)
	setDurationFromEnv(&cfg.ReminderLead, "REMINDER_LEAD", &errs)
	setDurationFromEnv(&cfg.SessionIdleTimeout, "SESSION_IDLE_TIMEOUT", &errs)

	setStringFromEnv(&cfg.OperatorContact, "OPERATOR_CONTACT")
	setStringFromEnv(&cfg.OperatorID, "OPERATOR_ID")
	setStringFromEnv(&cfg.OperatorIP, "OPERATOR_IP")
	setFloatFromEnv(&cfg.OperatorLat, "OPERATOR_DEFAULT_LAT", &errs)
	setFloatFromEnv(&cfg.OperatorLon, "OPERATOR_DEFAULT_LON", &errs)
	setStringFromEnv(&cfg.OperatorWebhook, "OPERATOR_WEBHOOK_URL")

	if v := os.Getenv("CHAT_TRANSPORT"); v != "" {
		cfg.ChatTransport = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	setStringFromEnv(&cfg.TwilioFrom, "TWILIO_FROM")
	setStringFromEnv(&cfg.TwilioWebhookURL, "TWILIO_WEBHOOK_URL")

	if v := os.Getenv("GEOCODER_PROVIDER"); v != "" {
		cfg.GeocoderProvider = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.OpenCageAPIKey = os.Getenv("OPENCAGE_API_KEY")
	cfg.GoogleMapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	setIntFromEnv(&cfg.GeocoderLimit, "GEOCODER_LIMIT", &errs)
	setStringFromEnv(&cfg.GeocoderLanguage, "GEOCODER_LANGUAGE")

	if v := os.Getenv("ROUTER_PROVIDER"); v != "" {
		cfg.RouterProvider = strings.ToLower(strings.TrimSpace(v))
	}
	setStringFromEnv(&cfg.OSRMEndpoint, "OSRM_ENDPOINT")
	cfg.ORSAPIKey = os.Getenv("OPENROUTESERVICE_API_KEY")
	setDurationFromEnv(&cfg.RouteCacheTTL, "ROUTE_CACHE_TTL", &errs)
	setFloatFromEnv(&cfg.StraightLineSpeedKh, "STRAIGHT_LINE_SPEED_KMH", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaRideTopic, "KAFKA_RIDE_TOPIC")
	setStringFromEnv(&cfg.KafkaLocationTopic, "KAFKA_LOCATION_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	setListFromEnv(&cfg.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")

	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

func (c ServerConfig) validate() []error {
	var errs []error
	if c.ReminderTick <= 0 {
		errs = append(errs, fmt.Errorf("REMINDER_TICK must be > 0"))
	}
	if c.ReminderLead <= 0 {
		errs = append(errs, fmt.Errorf("REMINDER_LEAD must be > 0"))
	}
	if c.SessionIdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("SESSION_IDLE_TIMEOUT must be >= 0"))
	}
	if c.BaseFare < 0 || c.PerKmRate < 0 || c.MinimumFare < 0 {
		errs = append(errs, fmt.Errorf("pricing values must be >= 0"))
	}
	if c.GeocoderLimit <= 0 {
		errs = append(errs, fmt.Errorf("GEOCODER_LIMIT must be > 0"))
	}
	if len(c.StartKeywords) == 0 || len(c.CancelKeywords) == 0 {
		errs = append(errs, fmt.Errorf("start and cancel keyword sets must not be empty"))
	}
	switch c.ChatTransport {
	case "log":
	case "twilio":
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFrom == "" {
			errs = append(errs, fmt.Errorf("twilio transport needs TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CHAT_TRANSPORT %q", c.ChatTransport))
	}
	switch c.GeocoderProvider {
	case "opencage", "google":
	default:
		errs = append(errs, fmt.Errorf("unknown GEOCODER_PROVIDER %q", c.GeocoderProvider))
	}
	switch c.RouterProvider {
	case "straight":
	case "osrm":
		if c.OSRMEndpoint == "" {
			errs = append(errs, fmt.Errorf("osrm router needs OSRM_ENDPOINT"))
		}
	case "ors":
		if c.ORSAPIKey == "" {
			errs = append(errs, fmt.Errorf("ors router needs OPENROUTESERVICE_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ROUTER_PROVIDER %q", c.RouterProvider))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE: %w", err))
	}
	return errs
}

// Location resolves the configured timezone, falling back to a fixed UTC-3 zone.
func (c ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone(c.Timezone, -3*60*60)
	}
	return loc
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func setListFromEnv(target *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		if list := splitAndTrim(v); len(list) > 0 {
			*target = list
		}
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
