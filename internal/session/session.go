// Package session gates the dashboard behind a username/password login.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"abc-dashboard/internal/database"
)

// CookieName carries the session id for browsers
const CookieName = "abc_session"

var (
	// ErrInvalidCredentials is returned for a wrong username or password
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTooManyAttempts is returned when a client exceeds the login rate
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Store persists sessions
type Store interface {
	Create(username string, ttl time.Duration) (*database.Session, error)
	Get(id string) (*database.Session, error)
	Delete(id string) error
}

// IsAuthenticated reports whether s grants access at now
func IsAuthenticated(s *database.Session, now time.Time) bool {
	return s != nil && s.ID != "" && now.Before(s.ExpiresAt)
}

// Config is the part of the server configuration the gate needs
type Config struct {
	Username     string
	Password     string
	TTL          time.Duration
	LoginPerMin  float64
	LoginBurst   int
	SecureCookie bool
}

// Manager checks credentials and resolves session tokens
type Manager struct {
	store    Store
	username []byte
	password []byte
	ttl      time.Duration
	secure   bool
	limiter  *LoginLimiter
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a session manager
func NewManager(store Store, cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		username: []byte(cfg.Username),
		password: []byte(cfg.Password),
		ttl:      cfg.TTL,
		secure:   cfg.SecureCookie,
		limiter:  NewLoginLimiter(cfg.LoginPerMin, cfg.LoginBurst),
		logger:   logger,
		now:      time.Now,
	}
}

// Login checks the credentials and starts a session. clientIP is used
// for throttling only.
func (m *Manager) Login(clientIP, username, password string) (*database.Session, error) {
	if !m.limiter.Allow(clientIP) {
		m.logger.Warn("Login throttled", "client_ip", clientIP)
		return nil, ErrTooManyAttempts
	}

	// compare both fields so timing does not reveal which one was wrong
	userOK := subtle.ConstantTimeCompare([]byte(username), m.username)
	passOK := subtle.ConstantTimeCompare([]byte(password), m.password)
	if userOK&passOK != 1 {
		m.logger.Warn("Failed login", "client_ip", clientIP, "username", username)
		return nil, ErrInvalidCredentials
	}

	s, err := m.store.Create(username, m.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	m.logger.Info("User logged in", "username", username, "expires_at", s.ExpiresAt)
	return s, nil
}

// Logout ends the session with id
func (m *Manager) Logout(id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(id)
}

// Lookup returns the live session for token, or nil. Expired sessions
// are removed as they are found.
func (m *Manager) Lookup(token string) (*database.Session, error) {
	if token == "" {
		return nil, nil
	}
	s, err := m.store.Get(token)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	if !IsAuthenticated(s, m.now()) {
		if err := m.store.Delete(s.ID); err != nil {
			m.logger.Warn("Failed to remove expired session", "error", err)
		}
		return nil, nil
	}
	return s, nil
}

// SetCookie writes the session cookie
func (m *Manager) SetCookie(w http.ResponseWriter, s *database.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the bearer token, falling back to the cookie
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

type contextKey struct{}

// WithSession stores s in ctx
func WithSession(ctx context.Context, s *database.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession
func FromContext(ctx context.Context) (*database.Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*database.Session)
	return s, ok && s != nil
}

// Username returns the logged in user for ctx, or ""
func Username(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.Username
	}
	return ""
}
