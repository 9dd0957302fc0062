package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/gorilla/sessions"
)

const (
	// DefaultSessionName is the cookie carrying the shell session id.
	DefaultSessionName = "admin_shell"
	// VariantCookie remembers an explicitly selected variant.
	VariantCookie = "shell_variant"
	// ThemeCookie is the durable storage of the theme preference.
	ThemeCookie = "shell_theme"
	// ColorSchemeHint is the client hint reporting the OS color scheme.
	ColorSchemeHint = "Sec-CH-Prefers-Color-Scheme"

	sessionIDKey = "sid"
	themeMaxAge  = 365 * 24 * time.Hour
)

// NewCookieStore creates the signed cookie store used for shell sessions.
func NewCookieStore(secret []byte, maxAge time.Duration, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

type sessionEnsurer interface {
	EnsureSession(ctx context.Context, id string) (*shell.Session, bool, error)
}

// SessionManager binds browser cookies to mounted shells.
type SessionManager struct {
	store  sessions.Store
	name   string
	shells sessionEnsurer
}

// NewSessionManager wires the cookie store to the shell service.
func NewSessionManager(store sessions.Store, name string, shells sessionEnsurer) *SessionManager {
	if name == "" {
		name = DefaultSessionName
	}
	return &SessionManager{store: store, name: name, shells: shells}
}

// Ensure returns the shell of the request, mounting one on the first visit or
// when the cookie no longer decodes.
func (m *SessionManager) Ensure(w http.ResponseWriter, r *http.Request) (*shell.Session, error) {
	if m == nil || m.store == nil || m.shells == nil {
		return nil, errors.New("httpapi: session manager is not configured")
	}
	// A cookie that fails to decode yields a fresh session.
	cookie, _ := m.store.Get(r, m.name)
	if cookie == nil {
		cookie = sessions.NewSession(m.store, m.name)
		cookie.IsNew = true
	}

	id, _ := cookie.Values[sessionIDKey].(string)
	session, _, err := m.shells.EnsureSession(r.Context(), id)
	if err != nil && id != "" {
		session, _, err = m.shells.EnsureSession(r.Context(), "")
	}
	if err != nil {
		return nil, err
	}
	if session.ID != id {
		cookie.Values[sessionIDKey] = session.ID
		if err := cookie.Save(r, w); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// SessionID returns the id stored in the request cookie without mounting.
func (m *SessionManager) SessionID(r *http.Request) string {
	if m == nil || m.store == nil {
		return ""
	}
	cookie, err := m.store.Get(r, m.name)
	if err != nil || cookie == nil {
		return ""
	}
	id, _ := cookie.Values[sessionIDKey].(string)
	return id
}

// cookieThemeStorage persists the theme preference in a plain cookie so it
// survives server restarts and session expiry.
type cookieThemeStorage struct {
	r      *http.Request
	w      http.ResponseWriter
	name   string
	secure bool
}

func (s cookieThemeStorage) Get(_ context.Context, key string) (string, error) {
	if key != shell.ThemeStorageKey {
		return "", nil
	}
	cookie, err := s.r.Cookie(s.name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func (s cookieThemeStorage) Set(_ context.Context, key, value string) error {
	if key != shell.ThemeStorageKey {
		return nil
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(themeMaxAge.Seconds()),
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
