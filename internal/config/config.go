package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/EcommerceGo/storefront/pkg/config"
)

// Session store backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Remote services
	APIBaseURL    string `env:"STOREFRONT_API_BASE_URL" envDefault:"http://localhost:8080/ecommerce-management/v1"`
	PostalBaseURL string `env:"STOREFRONT_POSTAL_BASE_URL" envDefault:"https://viacep.com.br/ws"`
	PaymentTarget string `env:"STOREFRONT_PAYMENT_TARGET" envDefault:"https://www.example.com/pix-payment"`

	// Session persistence
	SessionBackend   string `env:"STOREFRONT_SESSION_BACKEND" envDefault:"redis"`
	SessionNamespace string `env:"STOREFRONT_SESSION_NAMESPACE" envDefault:"default"`
	SessionTTLHours  int    `env:"STOREFRONT_SESSION_TTL_HOURS" envDefault:"168"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	EventsEnabled bool     `env:"STOREFRONT_EVENTS_ENABLED" envDefault:"false"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// HTTP client
	HTTPTimeoutSeconds int `env:"HTTP_TIMEOUT_SECONDS" envDefault:"10"`
	HTTPMaxRetries     int `env:"HTTP_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker settings for remote calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Per-call timeouts (seconds). A remote call that never answers must not
	// leave the session pending forever.
	OrderTimeout    int `env:"STOREFRONT_ORDER_TIMEOUT" envDefault:"5"`
	ItemTimeout     int `env:"STOREFRONT_ITEM_TIMEOUT" envDefault:"5"`
	FinalizeTimeout int `env:"STOREFRONT_FINALIZE_TIMEOUT" envDefault:"10"`
	PaymentTimeout  int `env:"STOREFRONT_PAYMENT_TIMEOUT" envDefault:"10"`
	LookupTimeout   int `env:"STOREFRONT_LOOKUP_TIMEOUT" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Sandbox API server
	SandboxHTTPPort int `env:"SANDBOX_HTTP_PORT" envDefault:"8080"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	for name, rawURL := range map[string]string{
		"STOREFRONT_API_BASE_URL":    c.APIBaseURL,
		"STOREFRONT_POSTAL_BASE_URL": c.PostalBaseURL,
		"STOREFRONT_PAYMENT_TARGET":  c.PaymentTarget,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}

	switch c.SessionBackend {
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STOREFRONT_SESSION_BACKEND must be %q or %q, got %q", BackendRedis, BackendMemory, c.SessionBackend)
	}
	if c.SessionNamespace == "" {
		return fmt.Errorf("STOREFRONT_SESSION_NAMESPACE is required")
	}
	if c.SessionTTLHours < 0 {
		return fmt.Errorf("STOREFRONT_SESSION_TTL_HOURS must not be negative, got %d", c.SessionTTLHours)
	}

	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when events are enabled")
	}

	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSeconds)
	}
	if c.HTTPMaxRetries < 0 {
		return fmt.Errorf("HTTP_MAX_RETRIES must not be negative, got %d", c.HTTPMaxRetries)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio)
	}

	for name, v := range map[string]int{
		"STOREFRONT_ORDER_TIMEOUT":    c.OrderTimeout,
		"STOREFRONT_ITEM_TIMEOUT":     c.ItemTimeout,
		"STOREFRONT_FINALIZE_TIMEOUT": c.FinalizeTimeout,
		"STOREFRONT_PAYMENT_TIMEOUT":  c.PaymentTimeout,
		"STOREFRONT_LOOKUP_TIMEOUT":   c.LookupTimeout,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.SandboxHTTPPort < 1 || c.SandboxHTTPPort > 65535 {
		return fmt.Errorf("invalid SANDBOX_HTTP_PORT: %d", c.SandboxHTTPPort)
	}
	return nil
}

// SessionTTL returns how long persisted session keys live; zero means forever.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Timeouts converts the per-call timeout settings to durations.
func (c *Config) Timeouts() Timeouts {
	return Timeouts{
		Order:    time.Duration(c.OrderTimeout) * time.Second,
		Item:     time.Duration(c.ItemTimeout) * time.Second,
		Finalize: time.Duration(c.FinalizeTimeout) * time.Second,
		Payment:  time.Duration(c.PaymentTimeout) * time.Second,
		Lookup:   time.Duration(c.LookupTimeout) * time.Second,
	}
}

// Timeouts bounds each class of remote call made by the coordinator.
type Timeouts struct {
	Order    time.Duration
	Item     time.Duration
	Finalize time.Duration
	Payment  time.Duration
	Lookup   time.Duration
}

// DefaultTimeouts mirrors the envDefault values above.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Order:    5 * time.Second,
		Item:     5 * time.Second,
		Finalize: 10 * time.Second,
		Payment:  10 * time.Second,
		Lookup:   5 * time.Second,
	}
}
