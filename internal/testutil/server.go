package testutil

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"finitefield.org/shopfront/internal/catalog"
	"finitefield.org/shopfront/internal/httpserver"
	"finitefield.org/shopfront/internal/session"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithCatalog wires a custom catalog service implementation.
func WithCatalog(service catalog.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Catalog = service
	}
}

// WithBasePath sets a custom base path for the admin routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithLoginPath overrides where unauthenticated admin requests are sent.
func WithLoginPath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.LoginPath = path
	}
}

// WithLanguages sets the supported UI languages and the default.
func WithLanguages(def string, langs ...string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.DefaultLanguage = def
		cfg.Languages = langs
	}
}

// WithMaxUpload limits accepted image uploads.
func WithMaxUpload(n int64) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.MaxUploadBytes = n
	}
}

// NewServer constructs an httptest server running the shopfront HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	sessions, err := session.NewManager(session.Config{
		CookieName: "shopfront_session",
		HashKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	cfg := httpserver.Config{
		Address:         ":0",
		BasePath:        "/admin",
		LoginPath:       "/",
		Catalog:         catalog.NewDemoService(),
		Sessions:        sessions,
		CSRFCookieName:  "csrf_token",
		CSRFHeaderName:  "X-CSRF-Token",
		DefaultLanguage: "ru",
		Languages:       []string{"ru", "en"},
		Currency:        "₽",
		MaxUploadBytes:  2 << 20,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// NewClient returns a client with a cookie jar that does not follow redirects.
func NewClient(t testing.TB) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
