package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"finitefield.org/shopfront/internal/catalog"
	custommw "finitefield.org/shopfront/internal/httpserver/middleware"
	"finitefield.org/shopfront/internal/i18n"
	"finitefield.org/shopfront/internal/observability"
	"finitefield.org/shopfront/internal/session"
	"finitefield.org/shopfront/internal/templates/helpers"
	"finitefield.org/shopfront/internal/templates/view"
)

const defaultFallbackImage = "/public/static/images/default-product.svg"

// Dependencies collects external services and settings required by the UI handlers.
type Dependencies struct {
	Catalog       catalog.Service
	Bundle        *i18n.Bundle
	Languages     []string
	Currency      string
	FallbackImage string
	MaxUpload     int64
	CSRFHeader    string
}

// Handlers exposes HTTP handlers for the admin and shop pages and fragments.
type Handlers struct {
	catalog       catalog.Service
	loader        *catalog.Loader
	bundle        *i18n.Bundle
	languages     []string
	currency      string
	fallbackImage string
	maxUpload     int64
	csrfHeader    string
}

// NewHandlers wires the UI handler set. A nil catalog selects the in-memory demo catalog.
func NewHandlers(deps Dependencies) *Handlers {
	service := deps.Catalog
	if service == nil {
		service = catalog.NewDemoService()
	}
	bundle := deps.Bundle
	if bundle == nil {
		bundle = i18n.Default()
	}
	fallback := strings.TrimSpace(deps.FallbackImage)
	if fallback == "" {
		fallback = defaultFallbackImage
	}
	csrfHeader := deps.CSRFHeader
	if csrfHeader == "" {
		csrfHeader = "X-CSRF-Token"
	}
	return &Handlers{
		catalog:       service,
		loader:        catalog.NewLoader(service),
		bundle:        bundle,
		languages:     append([]string(nil), deps.Languages...),
		currency:      deps.Currency,
		fallbackImage: fallback,
		maxUpload:     deps.MaxUpload,
		csrfHeader:    csrfHeader,
	}
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) t(ctx context.Context, key string, args ...any) string {
	return h.bundle.T(i18n.LanguageFromContext(ctx), key, args...)
}

// layout builds the page chrome and consumes the pending flash messages.
func (h *Handlers) layout(r *http.Request, titleKey string) view.Layout {
	ctx := r.Context()
	lang := i18n.LanguageFromContext(ctx)
	layout := view.Layout{
		Lang:        lang,
		Title:       h.t(ctx, titleKey),
		CSRFToken:   custommw.CSRFTokenFromContext(ctx),
		CSRFHeader:  h.csrfHeader,
		Environment: custommw.EnvironmentFromContext(ctx),
	}
	if sess, ok := custommw.SessionFromContext(ctx); ok {
		for _, f := range sess.PopFlashes() {
			layout.Flashes = append(layout.Flashes, view.Flash{Tone: f.Tone, Message: f.Message})
		}
	}
	if len(h.languages) > 1 {
		for _, l := range h.languages {
			layout.Languages = append(layout.Languages, view.LanguageLink{
				Lang:   l,
				URL:    r.URL.Path + "?" + helpers.SetRawQuery(r.URL.RawQuery, "lang", l),
				Active: l == lang,
			})
		}
	}
	return layout
}

func render(w http.ResponseWriter, r *http.Request, status int, components ...templ.Component) {
	component := components[0]
	if len(components) > 1 {
		component = templ.Join(components...)
	}
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}

// trigger sets the HX-Trigger header to the JSON encoded events.
func trigger(w http.ResponseWriter, r *http.Request, events map[string]any) {
	payload, err := json.Marshal(events)
	if err != nil {
		observability.FromContext(r.Context()).Warn("encode hx-trigger failed", zap.Error(err))
		return
	}
	w.Header().Set("HX-Trigger", string(payload))
}

func toastEvent(message, tone string) map[string]any {
	return map[string]any{"message": message, "tone": tone}
}

// alert asks the browser to show message without swapping anything.
func (h *Handlers) alert(w http.ResponseWriter, r *http.Request, status int, message string, extra map[string]any) {
	events := map[string]any{"alert": map[string]any{"message": message}}
	for k, v := range extra {
		events[k] = v
	}
	trigger(w, r, events)
	w.Header().Set("HX-Reswap", "none")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// flashRedirect queues a flash message and follows post/redirect/get to target.
func flashRedirect(w http.ResponseWriter, r *http.Request, tone, message, target string) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.AddFlash(tone, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// describeError maps a failed submission to a status code and a user-facing message.
// Validation and backend rejections are 422; transport failures are 502.
func (h *Handlers) describeError(ctx context.Context, err error) (int, string) {
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, h.t(ctx, verr.Key)
	}
	if msg, ok := catalog.UserMessage(err); ok {
		observability.FromContext(ctx).Info("catalog backend rejected request", zap.Error(err))
		return http.StatusUnprocessableEntity, h.t(ctx, "error.prefix", msg)
	}
	observability.FromContext(ctx).Error("catalog backend unavailable", zap.Error(err))
	return http.StatusBadGateway, h.t(ctx, "error.prefix", h.t(ctx, "error.backend_unavailable"))
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := custommw.SessionFromContext(ctx)
	return sess
}
