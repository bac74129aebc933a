package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLanguage is the fallback language of the embedded catalogs.
const DefaultLanguage = "ru"

// Bundle holds the UI message catalogs, one per language.
type Bundle struct {
	dict     map[string]map[string]string
	fallback string
	langs    []string
}

// Load reads every <lang>.yaml file under dir in fsys. The fallback language must be present.
func Load(fsys fs.FS, dir, fallback string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read %s: %w", dir, err)
	}
	b := &Bundle{dict: map[string]map[string]string{}, fallback: fallback}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", name, err)
		}
		var messages map[string]string
		if err := yaml.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("i18n: unmarshal %s: %w", name, err)
		}
		lang := strings.ToLower(strings.TrimSuffix(name, ".yaml"))
		b.dict[lang] = messages
		b.langs = append(b.langs, lang)
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %s not loaded", fallback)
	}
	sort.Strings(b.langs)
	return b, nil
}

var defaultBundle = sync.OnceValue(func() *Bundle {
	b, err := Load(localeFS, "locales", DefaultLanguage)
	if err != nil {
		panic(err)
	}
	return b
})

// Default returns the bundle built from the embedded catalogs.
func Default() *Bundle { return defaultBundle() }

// Languages lists the loaded languages in sorted order.
func (b *Bundle) Languages() []string {
	return append([]string(nil), b.langs...)
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// Has reports whether a catalog exists for lang.
func (b *Bundle) Has(lang string) bool {
	_, ok := b.dict[lang]
	return ok
}

// T returns the message for key in lang, falling back to the fallback language and finally to
// the key itself. Arguments are applied with fmt.Sprintf semantics.
func (b *Bundle) T(lang, key string, args ...any) string {
	msg, ok := b.lookup(lang, key)
	if !ok {
		msg, ok = b.lookup(b.fallback, key)
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	m, ok := b.dict[lang]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

// Matcher picks the best language among supported for Accept-Language style preferences.
type Matcher struct {
	tags    []language.Tag
	matcher language.Matcher
}

// NewMatcher builds a matcher over supported. The first entry wins when nothing matches.
func NewMatcher(supported ...string) *Matcher {
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		if tag, err := language.Parse(s); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, language.Russian)
	}
	return &Matcher{tags: tags, matcher: language.NewMatcher(tags)}
}

// Match returns the supported base language best matching acceptLanguage. The second return
// value is false when nothing matched and the default was chosen.
func (m *Matcher) Match(acceptLanguage string) (string, bool) {
	fallback := baseOf(m.tags[0])
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return fallback, false
	}
	_, idx, confidence := m.matcher.Match(prefs...)
	if confidence == language.No {
		return fallback, false
	}
	return baseOf(m.tags[idx]), true
}

// Supports returns the supported base language matching lang exactly by base subtag.
func (m *Matcher) Supports(lang string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "", false
	}
	want := baseOf(tag)
	for _, t := range m.tags {
		if baseOf(t) == want {
			return want, true
		}
	}
	return "", false
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

type contextKey struct{}

// WithLanguage stores the negotiated language in ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

// LanguageFromContext returns the negotiated language or DefaultLanguage.
func LanguageFromContext(ctx context.Context) string {
	if ctx == nil {
		return DefaultLanguage
	}
	if lang, ok := ctx.Value(contextKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLanguage
}
