package gorouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/gorilla/securecookie"
)

const (
	// DefaultSessionCookie carries the signed shell session id.
	DefaultSessionCookie = "admin_shell_sid"
	// DefaultThemeCookie stores the theme preference.
	DefaultThemeCookie = "shell_theme"

	cookieMaxAge = 365 * 24 * time.Hour
)

// readCookie returns the named cookie from a raw Cookie header.
func readCookie(header, name string) string {
	if header == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// sessionCodec signs the session id stored in the browser.
type sessionCodec struct {
	name   string
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

func newSessionCodec(name string, hashKey, blockKey []byte, maxAge time.Duration, secure bool) *sessionCodec {
	if name == "" {
		name = DefaultSessionCookie
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(maxAge.Seconds()))
	return &sessionCodec{name: name, codec: codec, maxAge: maxAge, secure: secure}
}

// decode returns the session id carried by the Cookie header, if valid.
func (c *sessionCodec) decode(header string) string {
	raw := readCookie(header, c.name)
	if raw == "" {
		return ""
	}
	var id string
	if err := c.codec.Decode(c.name, raw, &id); err != nil {
		return ""
	}
	return id
}

func (c *sessionCodec) cookie(id string) (*http.Cookie, error) {
	encoded, err := c.codec.Encode(c.name, id)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// headerThemeStorage keeps the theme preference in a cookie using raw headers.
type headerThemeStorage struct {
	name   string
	header string
	set    func(*http.Cookie)
	secure bool
}

func (s headerThemeStorage) Get(_ context.Context, key string) (string, error) {
	if key != shell.ThemeStorageKey {
		return "", nil
	}
	return readCookie(s.header, s.name), nil
}

func (s headerThemeStorage) Set(_ context.Context, key, value string) error {
	if key != shell.ThemeStorageKey || s.set == nil {
		return nil
	}
	s.set(&http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// parseBody accepts JSON objects and urlencoded forms.
func parseBody(contentType string, body []byte) (url.Values, error) {
	values := url.Values{}
	if len(body) == 0 {
		return values, nil
	}
	if strings.HasPrefix(strings.TrimSpace(contentType), "application/json") {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}
		for key, value := range payload {
			switch v := value.(type) {
			case string:
				values.Set(key, v)
			case bool:
				if v {
					values.Set(key, "true")
				} else {
					values.Set(key, "false")
				}
			case float64:
				values.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
		return values, nil
	}
	return url.ParseQuery(string(body))
}

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
