package view

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/a-h/templ"

	"finitefield.org/shopfront/internal/i18n"
)

//go:embed templates
var templateFS embed.FS

// Layout carries the per-request chrome shared by full pages.
type Layout struct {
	Lang        string
	Title       string
	CSRFToken   string
	CSRFHeader  string
	Environment string
	Flashes     []Flash
	Languages   []LanguageLink
}

// Flash is a one-shot message rendered as a toast on page load.
type Flash struct {
	Tone    string
	Message string
}

// LanguageLink switches the UI language.
type LanguageLink struct {
	Lang   string
	URL    string
	Active bool
}

// Engine renders the embedded templates with one parsed set per language.
type Engine struct {
	bundle *i18n.Bundle
	sets   map[string]*template.Template
}

// NewEngine parses the embedded templates and binds the translation helper for every language
// in bundle.
func NewEngine(bundle *i18n.Bundle) (*Engine, error) {
	base, err := template.New("view").Funcs(template.FuncMap{
		"t": func(key string, args ...any) string { return key },
	}).ParseFS(templateFS, "templates/*/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}

	sets := make(map[string]*template.Template, len(bundle.Languages()))
	for _, lang := range bundle.Languages() {
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("view: clone templates for %s: %w", lang, err)
		}
		set.Funcs(template.FuncMap{
			"t": func(key string, args ...any) string { return bundle.T(lang, key, args...) },
		})
		sets[lang] = set
	}
	return &Engine{bundle: bundle, sets: sets}, nil
}

// Render executes the named template in the language negotiated for ctx.
func (e *Engine) Render(ctx context.Context, w io.Writer, name string, data any) error {
	set, ok := e.sets[i18n.LanguageFromContext(ctx)]
	if !ok {
		set = e.sets[e.bundle.Fallback()]
	}
	if err := set.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	return nil
}

var defaultEngine = sync.OnceValues(func() (*Engine, error) {
	return NewEngine(i18n.Default())
})

// Component adapts a named template into a templ.Component rendered by the default engine.
func Component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		engine, err := defaultEngine()
		if err != nil {
			return err
		}
		return engine.Render(ctx, w, name, data)
	})
}
