package shell

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = errors.New("shell: session not found")
	// ErrUnknownVariant is returned when a variant code is not registered.
	ErrUnknownVariant = errors.New("shell: unknown variant")
	// ErrUnknownMenuItem is returned when a menu id does not exist in the variant menu.
	ErrUnknownMenuItem = errors.New("shell: unknown menu item")
	// ErrInvalidTheme is returned for values outside light, dark and system.
	ErrInvalidTheme = errors.New("shell: invalid theme")
)

const (
	// RootPath is the shell landing route.
	RootPath = "/"
	// DashboardPath is an alias of the landing route that never produces a tab.
	DashboardPath = "/dashboard"
	// LoginPath renders outside the shell.
	LoginPath = "/login"
	// DefaultSidebarBreakpoint is the viewport width at which the sidebar opens by default.
	DefaultSidebarBreakpoint = 768
	// DerivedTabIcon is the icon given to tabs synthesized from a route.
	DerivedTabIcon = "file-text"
)

// Tab is a closable reference to an opened page.
type Tab struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
	Icon  string `json:"icon,omitempty"`
}

// NavigationState is a snapshot of a navigator.
type NavigationState struct {
	OpenTabs    []Tab           `json:"open_tabs"`
	ActiveTabID string          `json:"active_tab_id,omitempty"`
	OpenMenus   map[string]bool `json:"open_menus"`
	SidebarOpen bool            `json:"sidebar_open"`
}

// ActiveTab returns the active tab when one is set.
func (s NavigationState) ActiveTab() (Tab, bool) {
	if s.ActiveTabID == "" {
		return Tab{}, false
	}
	for _, tab := range s.OpenTabs {
		if tab.ID == s.ActiveTabID {
			return tab, true
		}
	}
	return Tab{}, false
}

// MenuOpen reports whether the submenu is expanded.
func (s NavigationState) MenuOpen(id string) bool {
	return s.OpenMenus[id]
}

// OpenMenuIDs lists expanded submenus in a stable order.
func (s NavigationState) OpenMenuIDs() []string {
	ids := make([]string, 0, len(s.OpenMenus))
	for id, open := range s.OpenMenus {
		if open {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Navigation is the command a navigator emits when the displayed route must change.
type Navigation struct {
	Path string `json:"path"`
}

// Theme is the stored preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme validates a stored or submitted value.
func ParseTheme(value string) (Theme, error) {
	switch theme := Theme(strings.ToLower(strings.TrimSpace(value))); theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		return theme, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidTheme, value)
	}
}

// Direction is the text direction of a variant.
type Direction string

const (
	DirectionLTR Direction = "ltr"
	DirectionRTL Direction = "rtl"
)

// ValidationError carries field level messages for a rejected form.
type ValidationError struct {
	Form   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "shell: validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("shell: %s form invalid: %s", e.Form, strings.Join(names, ", "))
}
