// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, verification limits,
// notification throttling, the sweep schedule, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-sms-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SMSConfig defines the outbound SMS provider settings.
type SMSConfig struct {
	SecretID         string        // SMS_SECRET_ID
	SecretKey        string        // SMS_SECRET_KEY
	Region           string        // SMS_REGION (e.g. "ap-guangzhou")
	SdkAppID         string        // SMS_APP_ID
	SignName         string        // SMS_SIGN_NAME
	CodeTemplateID   string        // SMS_CODE_TEMPLATE_ID (params: code, minutes)
	NoticeTemplateID string        // SMS_NOTICE_TEMPLATE_ID (params: time1, time2)
	Timeout          time.Duration // SMS_TIMEOUT, bound on one gateway call
}

// SweepConfig is the cron-like trigger of the expired-record sweep.
// Each field accepts 0..59 (0..23 for hour) or -1 for "every unit".
type SweepConfig struct {
	Hour   int // SWEEP_HOUR
	Minute int // SWEEP_MINUTE
	Second int // SWEEP_SECOND
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath string // SQLite path

	// Verification limits
	CodeTTL        time.Duration // how long an issued code stays valid
	ResendCooldown time.Duration // minimum gap between sends to one phone
	MaxSendsPerDay int           // issuance budget per phone per day

	// Binding / notification
	MaxPhonesPerCanteen int           // bound-phone cap per canteen
	NotifyCooldown      time.Duration // per-canteen notification window

	// Sweep schedule
	Sweep SweepConfig

	// Rate limiting (edge)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS CORSConfig

	// Outbound SMS
	SMS SMSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "app.db"),

		// Verification limits
		CodeTTL:        getdur("CODE_TTL", 5*time.Minute),
		ResendCooldown: getdur("RESEND_COOLDOWN", 2*time.Minute),
		MaxSendsPerDay: getint("MAX_SENDS_PER_DAY", 5),

		// Binding / notification
		MaxPhonesPerCanteen: getint("MAX_PHONES_PER_CANTEEN", 3),
		NotifyCooldown:      getdur("NOTIFY_COOLDOWN", 30*time.Minute),

		// Sweep schedule (02:00:00 daily)
		Sweep: SweepConfig{
			Hour:   getint("SWEEP_HOUR", 2),
			Minute: getint("SWEEP_MINUTE", 0),
			Second: getint("SWEEP_SECOND", 0),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Outbound SMS
		SMS: SMSConfig{
			SecretID:         getenv("SMS_SECRET_ID", ""),
			SecretKey:        getenv("SMS_SECRET_KEY", ""),
			Region:           getenv("SMS_REGION", "ap-guangzhou"),
			SdkAppID:         getenv("SMS_APP_ID", ""),
			SignName:         getenv("SMS_SIGN_NAME", ""),
			CodeTemplateID:   getenv("SMS_CODE_TEMPLATE_ID", ""),
			NoticeTemplateID: getenv("SMS_NOTICE_TEMPLATE_ID", ""),
			Timeout:          getdur("SMS_TIMEOUT", 10*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-sms-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.CodeTTL <= 0 {
		return cfg, errors.New("CODE_TTL must be > 0")
	}
	if cfg.ResendCooldown <= 0 || cfg.ResendCooldown >= cfg.CodeTTL {
		return cfg, errors.New("RESEND_COOLDOWN must be > 0 and shorter than CODE_TTL")
	}
	if cfg.MaxSendsPerDay < 1 {
		return cfg, errors.New("MAX_SENDS_PER_DAY must be >= 1")
	}
	if cfg.MaxPhonesPerCanteen < 1 {
		return cfg, errors.New("MAX_PHONES_PER_CANTEEN must be >= 1")
	}
	if cfg.NotifyCooldown <= 0 {
		return cfg, errors.New("NOTIFY_COOLDOWN must be > 0")
	}
	if err := validateSweepField(cfg.Sweep.Hour, 23); err != nil {
		return cfg, errors.New("SWEEP_HOUR must be -1 or in [0,23]")
	}
	if err := validateSweepField(cfg.Sweep.Minute, 59); err != nil {
		return cfg, errors.New("SWEEP_MINUTE must be -1 or in [0,59]")
	}
	if err := validateSweepField(cfg.Sweep.Second, 59); err != nil {
		return cfg, errors.New("SWEEP_SECOND must be -1 or in [0,59]")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.SMS.Timeout <= 0 {
		return cfg, errors.New("SMS_TIMEOUT must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func validateSweepField(v, max int) error {
	if v == -1 || (v >= 0 && v <= max) {
		return nil
	}
	return errors.New("out of range")
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
