package helpers

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"finitefield.org/shopfront/internal/format"
)

// Join appends suffix to base, normalising slashes.
func Join(base string, suffix ...string) string {
	path := strings.TrimSpace(base)
	for _, part := range suffix {
		path += "/" + strings.Trim(part, "/")
	}
	return normalizeRoute(path)
}

// WithQuery appends the non-empty values as query parameters.
func WithQuery(path string, pairs ...string) string {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			values.Set(pairs[i], pairs[i+1])
		}
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// SetRawQuery sets key=value in rawQuery and returns the encoded result.
func SetRawQuery(rawQuery, key, value string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		values = url.Values{}
	}
	values.Set(key, value)
	return values.Encode()
}

// ImageSrc marks src as trusted for an img src attribute when it is a data:image URL, an
// http(s) URL or a site-relative path. Anything else yields fallback.
func ImageSrc(src, fallback string) template.URL {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
	case strings.HasPrefix(src, "data:image/"),
		strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "http://"),
		strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//"):
		return template.URL(src)
	}
	return template.URL(fallback)
}

// Price formats amount for lang with the currency symbol appended.
func Price(lang string, amount decimal.Decimal, currency string) string {
	return format.PriceWithCurrency(lang, amount, currency)
}

func normalizeRoute(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
