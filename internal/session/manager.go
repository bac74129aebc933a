package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName  = "shopfront_session"
	defaultCookiePath  = "/"
	defaultLifetime    = 12 * time.Hour
	defaultIdleTimeout = 2 * time.Hour
	maxFlashes         = 5
)

// ErrExpired indicates the stored session is no longer valid due to idle or absolute expiry.
var ErrExpired = errors.New("session expired")

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Flash tones.
const (
	ToneSuccess = "success"
	ToneError   = "error"
	ToneInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Tone    string `json:"tone"`
	Message string `json:"message"`
}

// Data represents the full persisted session payload.
type Data struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	LastActive  time.Time `json:"lastActive"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	Flashes     []Flash   `json:"flashes,omitempty"`
	AdminFilter string    `json:"adminFilter,omitempty"`
}

// Session holds mutable state for the current request lifecycle.
type Session struct {
	data      Data
	dirty     bool
	destroyed bool
}

// Config controls cookie encoding and lifecycle limits for the session manager.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	IdleTimeout time.Duration
	Lifetime    time.Duration
	Now         func() time.Time
}

// Manager decodes and persists session state via signed (and optionally encrypted) cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}

	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	var blockKey []byte
	if len(cfg.BlockKey) > 0 {
		blockKey = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Manager{cfg: cfg, codec: codec, now: nowFn}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// Load retrieves the session from the incoming request or creates a new one. Undecodable cookies
// yield a fresh session; expired ones yield ErrExpired.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.New(), nil
	}

	var stored Data
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &stored); err != nil {
		return m.New(), nil
	}
	if stored.ID == "" {
		return m.New(), nil
	}

	sess := &Session{data: stored}
	if m.isExpired(sess, m.now()) {
		return nil, ErrExpired
	}
	return sess, nil
}

// Save writes the session back to the response as a cookie. Destroyed sessions clear the cookie.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	if sess.destroyed {
		m.Destroy(w)
		return nil
	}

	sess.Touch(m.now())
	data := sess.data

	encoded, err := m.codec.Encode(m.cfg.CookieName, data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
	if !data.ExpiresAt.IsZero() {
		expiry := data.ExpiresAt.UTC()
		cookie.Expires = expiry
		if remaining := expiry.Sub(m.now()); remaining <= 0 {
			cookie.MaxAge = -1
		} else {
			cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
		}
	}

	http.SetCookie(w, cookie)
	return nil
}

// Destroy invalidates the session cookie immediately.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	})
}

// New returns a new empty session.
func (m *Manager) New() *Session {
	now := m.now().UTC()
	return &Session{
		data: Data{
			ID:         mustGenerateToken(24),
			CreatedAt:  now,
			LastActive: now,
			ExpiresAt:  now.Add(m.cfg.Lifetime),
		},
		dirty: true,
	}
}

func (m *Manager) isExpired(sess *Session, now time.Time) bool {
	now = now.UTC()
	if !sess.data.ExpiresAt.IsZero() && now.After(sess.data.ExpiresAt.UTC()) {
		return true
	}
	last := sess.data.LastActive
	if last.IsZero() {
		last = sess.data.CreatedAt
	}
	return m.cfg.IdleTimeout > 0 && !last.IsZero() && now.Sub(last) > m.cfg.IdleTimeout
}

// ID returns the stable session identifier.
func (s *Session) ID() string {
	return s.data.ID
}

// AddFlash queues a message for the next rendered page. Only the latest few are kept.
func (s *Session) AddFlash(tone, message string) {
	if message == "" {
		return
	}
	s.data.Flashes = append(s.data.Flashes, Flash{Tone: tone, Message: message})
	if n := len(s.data.Flashes); n > maxFlashes {
		s.data.Flashes = append([]Flash(nil), s.data.Flashes[n-maxFlashes:]...)
	}
	s.dirty = true
}

// PopFlashes returns and clears the queued messages.
func (s *Session) PopFlashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	out := s.data.Flashes
	s.data.Flashes = nil
	s.dirty = true
	return out
}

// AdminFilter returns the last product filter chosen in the admin.
func (s *Session) AdminFilter() string {
	return s.data.AdminFilter
}

// SetAdminFilter remembers the admin product filter.
func (s *Session) SetAdminFilter(filter string) {
	if s.data.AdminFilter == filter {
		return
	}
	s.data.AdminFilter = filter
	s.dirty = true
}

// Destroy marks the session for deletion at the end of the request.
func (s *Session) Destroy() {
	s.destroyed = true
	s.dirty = true
}

// Destroyed exposes the destroy marker.
func (s *Session) Destroyed() bool {
	return s.destroyed
}

// Touch updates the last active timestamp.
func (s *Session) Touch(now time.Time) {
	now = now.UTC()
	if now.After(s.data.LastActive) {
		s.data.LastActive = now
		s.dirty = true
	}
}

// Dirty indicates whether the session contents have changed during this request.
func (s *Session) Dirty() bool {
	return s.dirty
}

func mustGenerateToken(length int) string {
	token, err := generateToken(length)
	if err != nil {
		panic(err)
	}
	return token
}

func generateToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
