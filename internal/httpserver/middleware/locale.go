package middleware

import (
	"net/http"
	"time"

	"finitefield.org/shopfront/internal/i18n"
)

// LocaleCookie remembers an explicit language choice.
const LocaleCookie = "shopfront_lang"

// Locale negotiates the UI language from ?lang=, the language cookie, then Accept-Language.
// An explicit ?lang= choice is persisted in the cookie.
func Locale(supported []string, fallback string) func(http.Handler) http.Handler {
	ordered := make([]string, 0, len(supported)+1)
	ordered = append(ordered, fallback)
	for _, lang := range supported {
		if lang != fallback {
			ordered = append(ordered, lang)
		}
	}
	matcher := i18n.NewMatcher(ordered...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q, ok := matcher.Supports(r.URL.Query().Get("lang")); ok {
				lang = q
				http.SetCookie(w, &http.Cookie{
					Name:     LocaleCookie,
					Value:    q,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if lang == "" {
				if c, err := r.Cookie(LocaleCookie); err == nil {
					lang, _ = matcher.Supports(c.Value)
				}
			}
			if lang == "" {
				lang, _ = matcher.Match(r.Header.Get("Accept-Language"))
			}
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(i18n.WithLanguage(r.Context(), lang)))
		})
	}
}
