package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/observability"
)

type csrfContextKey struct{}

// CSRFFormField is the form field checked when the header is absent (plain form posts).
const CSRFFormField = "csrf_token"

const csrfTokenBytes = 32

// CSRFConfig controls cookie/header behaviour.
type CSRFConfig struct {
	CookieName string
	CookiePath string
	HeaderName string
	MaxAge     time.Duration
	Secure     bool
}

type csrfGuard struct {
	cookie string
	path   string
	header string
	maxAge time.Duration
	secure bool
}

func newCSRFGuard(cfg CSRFConfig) csrfGuard {
	g := csrfGuard{
		cookie: cfg.CookieName,
		path:   cfg.CookiePath,
		header: cfg.HeaderName,
		maxAge: cfg.MaxAge,
		secure: cfg.Secure,
	}
	if g.cookie == "" {
		g.cookie = "shopfront_csrf"
	}
	if g.path == "" {
		g.path = "/"
	}
	if g.header == "" {
		g.header = "X-CSRF-Token"
	}
	if g.maxAge <= 0 {
		g.maxAge = 24 * time.Hour
	}
	return g
}

// CSRF applies double-submit cookie protection. Every request gets a token (reused from the
// cookie or freshly minted); state-changing requests must echo it in the header or, for plain
// form posts, in the csrf_token field. Rejected htmx requests ask the browser to reload the page
// so it picks up the current token.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	guard := newCSRFGuard(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := guard.token(w, r)
			if !ok {
				http.Error(w, "csrf token error", http.StatusInternalServerError)
				return
			}
			if mutates(r.Method) && !guard.matches(r, token) {
				observability.FromContext(r.Context()).Info("csrf check failed",
					zap.String("method", r.Method),
					zap.Bool("header_present", r.Header.Get(guard.header) != ""),
				)
				if HTMXInfoFromContext(r.Context()).IsHTMX {
					w.Header().Set("HX-Refresh", "true")
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
		})
	}
}

// CSRFTokenFromContext returns the token issued for the current request (to embed in forms or meta tags).
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey{}).(string)
	return token
}

// token returns the caller's token, minting and setting a new cookie when there is none.
func (g csrfGuard) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	if c, err := r.Cookie(g.cookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	raw := securecookie.GenerateRandomKey(csrfTokenBytes)
	if raw == nil {
		return "", false
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie,
		Value:    token,
		Path:     g.path,
		HttpOnly: true,
		Secure:   g.secure || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(g.maxAge.Seconds()),
	})
	return token, true
}

func (g csrfGuard) matches(r *http.Request, token string) bool {
	submitted := r.Header.Get(g.header)
	if submitted == "" {
		submitted = r.PostFormValue(CSRFFormField)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) == 1
}

func mutates(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}
