package middleware

import (
	"context"
	"net/http"
	"strings"
)

type requestInfoKeyType int

const requestInfoKey requestInfoKeyType = iota

// RequestInfo holds lightweight request metadata exposed to templates.
type RequestInfo struct {
	Path        string
	BasePath    string
	Method      string
	Environment string
}

// RequestInfoMiddleware annotates the context with the current request path, the admin base path
// and the deployment environment label.
func RequestInfoMiddleware(basePath, environment string) func(http.Handler) http.Handler {
	base := NormalizeBasePath(basePath)
	env := strings.TrimSpace(environment)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &RequestInfo{
				Path:        r.URL.Path,
				Method:      r.Method,
				BasePath:    base,
				Environment: env,
			}
			ctx := context.WithValue(r.Context(), requestInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestInfoFromContext returns the request metadata stored by RequestInfoMiddleware.
func RequestInfoFromContext(ctx context.Context) (*RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey).(*RequestInfo)
	return info, ok && info != nil
}

// BasePathFromContext returns the resolved admin base path or "/" when unavailable.
func BasePathFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok && info.BasePath != "" {
		return info.BasePath
	}
	return "/"
}

// EnvironmentFromContext returns the environment label, empty when unset.
func EnvironmentFromContext(ctx context.Context) string {
	if info, ok := RequestInfoFromContext(ctx); ok {
		return info.Environment
	}
	return ""
}

// NormalizeBasePath ensures a leading slash and strips trailing ones.
func NormalizeBasePath(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if base != "/" {
		base = strings.TrimRight(base, "/")
		if base == "" {
			return "/"
		}
	}
	return base
}
