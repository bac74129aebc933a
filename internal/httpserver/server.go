package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/catalog"
	custommw "finitefield.org/shopfront/internal/httpserver/middleware"
	"finitefield.org/shopfront/internal/httpserver/ui"
	"finitefield.org/shopfront/internal/i18n"
	"finitefield.org/shopfront/internal/observability"
	"finitefield.org/shopfront/internal/session"
	"finitefield.org/shopfront/public"
)

const uploadSlack = 1 << 20

// Config holds runtime options for the shopfront HTTP server.
type Config struct {
	Address     string
	BasePath    string
	LoginPath   string
	Environment string

	Logger   *zap.Logger
	Catalog  catalog.Service
	Sessions *session.Manager

	CSRFCookieName   string
	CSRFCookieSecure bool
	CSRFHeaderName   string

	DefaultLanguage string
	Languages       []string
	Currency        string
	FallbackImage   string
	MaxUploadBytes  int64

	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// New constructs the HTTP server with the middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	service := cfg.Catalog
	if service == nil {
		service = catalog.NewDemoService()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		mgr, err := session.NewManager(session.Config{HashKey: securecookie.GenerateRandomKey(32)})
		if err != nil {
			return nil, err
		}
		sessions = mgr
	}
	defaultLang := firstNonEmpty(cfg.DefaultLanguage, i18n.DefaultLanguage)
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{defaultLang}
	}
	csrfCookie := firstNonEmpty(cfg.CSRFCookieName, "shopfront_csrf")
	csrfHeader := firstNonEmpty(cfg.CSRFHeaderName, "X-CSRF-Token")
	basePath := normalizeBasePath(cfg.BasePath)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.RequestLogger())
	router.Use(observability.Recovery())
	router.Use(chimw.Timeout(durationOr(cfg.RequestTimeout, 60*time.Second)))
	router.Use(custommw.HTMX())
	router.Use(custommw.Locale(languages, defaultLang))
	router.Use(custommw.RequestInfoMiddleware(basePath, cfg.Environment))
	router.Use(custommw.Credentials(sessions.CookieName(), csrfCookie, custommw.LocaleCookie))
	router.Use(custommw.Session(sessions))

	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, err
	}
	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))

	handlers := ui.NewHandlers(ui.Dependencies{
		Catalog:       service,
		Languages:     languages,
		Currency:      cfg.Currency,
		FallbackImage: cfg.FallbackImage,
		MaxUpload:     cfg.MaxUploadBytes,
		CSRFHeader:    csrfHeader,
	})

	router.Get("/healthz", handlers.Healthz)
	router.Get("/", handlers.ShopPage)
	RegisterFragment(router, "/catalog/products", handlers.ShopProducts)

	mountAdminRoutes(router, basePath, handlers, routeOptions{
		Checker:   service,
		LoginPath: firstNonEmpty(cfg.LoginPath, "/"),
		MaxBody:   cfg.MaxUploadBytes + uploadSlack,
		CSRF: custommw.CSRFConfig{
			CookieName: csrfCookie,
			CookiePath: basePath,
			HeaderName: csrfHeader,
			Secure:     cfg.CSRFCookieSecure,
		},
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      durationOr(cfg.WriteTimeout, 60*time.Second),
		IdleTimeout:       durationOr(cfg.IdleTimeout, 120*time.Second),
	}, nil
}

type routeOptions struct {
	Checker   custommw.SessionChecker
	LoginPath string
	MaxBody   int64
	CSRF      custommw.CSRFConfig
}

func mountAdminRoutes(router chi.Router, base string, h *ui.Handlers, opts routeOptions) {
	router.Route(base, func(r chi.Router) {
		r.Use(custommw.NoStore())
		if opts.MaxBody > uploadSlack {
			r.Use(chimw.RequestSize(opts.MaxBody))
		}
		r.Use(custommw.Auth(opts.Checker, opts.LoginPath))
		r.Use(custommw.CSRF(opts.CSRF))

		r.Get("/", h.AdminPage)
		RegisterFragment(r, "/fragments/products", h.ProductsFragment)
		r.Get("/export.xlsx", h.Export)
		r.Get("/logout", h.Logout)

		r.Get("/categories/new", h.NewCategory)
		r.Post("/categories", h.SubmitCategory)
		r.Get("/categories/{id}/edit", h.EditCategory)
		r.Put("/categories/{id}", h.SubmitCategory)
		r.Post("/categories/{id}", h.SubmitCategory)
		r.Get("/categories/{id}/delete", h.ConfirmDeleteCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)
		r.Post("/categories/{id}/delete", h.DeleteCategory)

		r.Get("/products/new", h.NewProduct)
		r.Post("/products", h.SubmitProduct)
		r.With(custommw.RequireHTMX()).Post("/products/preview", h.PreviewImage)
		r.Get("/products/{id}/edit", h.EditProduct)
		r.Put("/products/{id}", h.SubmitProduct)
		r.Post("/products/{id}", h.SubmitProduct)
		r.Get("/products/{id}/delete", h.ConfirmDeleteProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Post("/products/{id}/delete", h.DeleteProduct)
	})
}

func normalizeBasePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return "/admin"
	}
	return custommw.NormalizeBasePath(p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
