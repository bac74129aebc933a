package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/catalog"
	"finitefield.org/shopfront/internal/observability"
)

// SessionChecker verifies the caller's backend admin session.
type SessionChecker interface {
	CheckSession(ctx context.Context, creds catalog.Credentials) error
}

// Auth gates the admin surface: one backend session check per request, no refresh. Failures
// redirect to loginPath, via HX-Redirect for htmx requests.
func Auth(checker SessionChecker, loginPath string) func(http.Handler) http.Handler {
	if checker == nil {
		panic("session checker is required")
	}
	if loginPath == "" {
		loginPath = "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := CredentialsFromContext(r.Context())
			if err := checker.CheckSession(r.Context(), creds); err != nil {
				observability.FromContext(r.Context()).Info("admin session rejected", zap.Error(err))
				destroySession(r.Context())
				handleUnauthorized(w, r, loginPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleUnauthorized(w http.ResponseWriter, r *http.Request, loginPath string) {
	if HTMXInfoFromContext(r.Context()).IsHTMX {
		w.Header().Set("HX-Redirect", loginPath)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func destroySession(ctx context.Context) {
	if sess, ok := SessionFromContext(ctx); ok && sess != nil {
		sess.Destroy()
	}
}
