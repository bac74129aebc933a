package middleware

import (
	"context"
	"net/http"

	"finitefield.org/shopfront/internal/catalog"
)

type credentialsContextKey struct{}

// Credentials captures the caller's backend credentials, skipping the shopfront's own cookies.
func Credentials(ownCookies ...string) func(http.Handler) http.Handler {
	exclude := append([]string(nil), ownCookies...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := catalog.CredentialsFromRequest(r, exclude...)
			ctx := context.WithValue(r.Context(), credentialsContextKey{}, creds)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialsFromContext returns the credentials captured for this request.
func CredentialsFromContext(ctx context.Context) catalog.Credentials {
	if ctx == nil {
		return catalog.Credentials{}
	}
	creds, _ := ctx.Value(credentialsContextKey{}).(catalog.Credentials)
	return creds
}
