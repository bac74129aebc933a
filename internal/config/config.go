package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envPrefix = "SHOPFRONT_"

	defaultEnvFile         = ".env"
	defaultHTTPAddr        = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultRequestTimeout  = 60 * time.Second
	defaultEnvironment     = "local"
	defaultLogLevel        = "info"
	defaultAdminBasePath   = "/admin"
	defaultLoginPath       = "/"
	defaultSessionCookie   = "shopfront_session"
	defaultCSRFCookie      = "shopfront_csrf"
	defaultCSRFHeader      = "X-CSRF-Token"
	defaultLocale          = "ru"
	defaultCurrencySymbol  = "₽"
	defaultFallbackImage   = "/public/static/images/default-product.svg"
	defaultMaxUploadBytes  = 8 << 20
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Admin   AdminConfig
	Session SessionConfig
	Locale  LocaleConfig
	Catalog CatalogConfig
	Log     LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	Environment     string
}

// BackendConfig points at the catalog REST backend. An empty URL selects the in-memory catalog.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
	// AssetURL resolves relative product image paths; empty means the backend URL.
	AssetURL string
}

// AdminConfig configures the admin surface.
type AdminConfig struct {
	BasePath  string
	LoginPath string
}

// SessionConfig configures the shopfront's own cookies.
type SessionConfig struct {
	CookieName   string
	HashKey      []byte
	BlockKey     []byte
	CookieSecure bool
	CSRFCookie   string
	CSRFHeader   string
}

// LocaleConfig selects the UI languages.
type LocaleConfig struct {
	Default   string
	Supported []string
}

// CatalogConfig tunes catalog rendering and uploads.
type CatalogConfig struct {
	CurrencySymbol string
	FallbackImage  string
	MaxUploadBytes int64
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the .env file, the process environment and
// explicit overrides, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		key = envPrefix + key
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:            stringWithDefault(lookup, "HTTP_ADDR", defaultHTTPAddr),
			ReadTimeout:     durationWithDefault(lookup, "READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			RequestTimeout:  durationWithDefault(lookup, "REQUEST_TIMEOUT", defaultRequestTimeout),
			Environment:     stringWithDefault(lookup, "ENVIRONMENT", defaultEnvironment),
		},
		Backend: BackendConfig{
			URL:      strings.TrimSpace(stringWithDefault(lookup, "BACKEND_URL", "")),
			Timeout:  durationWithDefault(lookup, "BACKEND_TIMEOUT", 0),
			AssetURL: strings.TrimSpace(stringWithDefault(lookup, "BACKEND_ASSET_URL", "")),
		},
		Admin: AdminConfig{
			BasePath:  stringWithDefault(lookup, "ADMIN_BASE_PATH", defaultAdminBasePath),
			LoginPath: stringWithDefault(lookup, "LOGIN_PATH", defaultLoginPath),
		},
		Session: SessionConfig{
			CookieName:   stringWithDefault(lookup, "SESSION_COOKIE", defaultSessionCookie),
			HashKey:      []byte(stringWithDefault(lookup, "SESSION_HASH_KEY", "")),
			BlockKey:     []byte(stringWithDefault(lookup, "SESSION_BLOCK_KEY", "")),
			CookieSecure: boolWithDefault(lookup, "COOKIE_SECURE", false),
			CSRFCookie:   stringWithDefault(lookup, "CSRF_COOKIE", defaultCSRFCookie),
			CSRFHeader:   stringWithDefault(lookup, "CSRF_HEADER", defaultCSRFHeader),
		},
		Locale: LocaleConfig{
			Default:   strings.ToLower(stringWithDefault(lookup, "DEFAULT_LOCALE", defaultLocale)),
			Supported: csvWithDefault(lookup, "LOCALES", []string{"ru", "en"}),
		},
		Catalog: CatalogConfig{
			CurrencySymbol: stringWithDefault(lookup, "CURRENCY_SYMBOL", defaultCurrencySymbol),
			FallbackImage:  stringWithDefault(lookup, "FALLBACK_IMAGE", defaultFallbackImage),
			MaxUploadBytes: int64WithDefault(lookup, "MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		},
		Log: LogConfig{
			Level: stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		invalid = append(invalid, "Server.Addr")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		invalid = append(invalid, "Server.ShutdownTimeout")
	}
	if cfg.Backend.URL != "" {
		parsed, err := url.Parse(cfg.Backend.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			invalid = append(invalid, "Backend.URL")
		}
	}
	if cfg.Backend.Timeout < 0 {
		invalid = append(invalid, "Backend.Timeout")
	}
	if !strings.HasPrefix(cfg.Admin.BasePath, "/") || cfg.Admin.BasePath == "/" {
		invalid = append(invalid, "Admin.BasePath")
	}
	if !strings.HasPrefix(cfg.Admin.LoginPath, "/") {
		invalid = append(invalid, "Admin.LoginPath")
	}
	if n := len(cfg.Session.HashKey); n > 0 && n < 32 {
		invalid = append(invalid, "Session.HashKey")
	}
	switch len(cfg.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		invalid = append(invalid, "Session.BlockKey")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" || cfg.Session.CookieName == cfg.Session.CSRFCookie {
		invalid = append(invalid, "Session.CookieName")
	}
	if len(cfg.Locale.Supported) == 0 || !contains(cfg.Locale.Supported, cfg.Locale.Default) {
		invalid = append(invalid, "Locale.Default")
	}
	if cfg.Catalog.MaxUploadBytes <= 0 {
		invalid = append(invalid, "Catalog.MaxUploadBytes")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func int64WithDefault(lookup func(string) (string, bool), key string, fallback int64) int64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return append([]string(nil), fallback...)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
