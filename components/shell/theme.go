package shell

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// ThemeStorageKey is the durable storage key holding the preference.
const ThemeStorageKey = "theme"

// ThemeStorage is the durable client storage backing a theme store.
type ThemeStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// SchemeSource reports the color scheme the client operating system prefers.
// It must return ThemeLight or ThemeDark.
type SchemeSource interface {
	PreferredScheme(ctx context.Context) Theme
}

// SchemeFunc adapts a function into a SchemeSource.
type SchemeFunc func(ctx context.Context) Theme

// PreferredScheme implements SchemeSource.
func (fn SchemeFunc) PreferredScheme(ctx context.Context) Theme {
	if fn == nil {
		return ThemeLight
	}
	return fn(ctx)
}

// StaticScheme always reports the same scheme.
func StaticScheme(theme Theme) SchemeSource {
	return SchemeFunc(func(context.Context) Theme { return normalizeScheme(theme) })
}

// ParseColorSchemeHint reads a Sec-CH-Prefers-Color-Scheme header value.
func ParseColorSchemeHint(value string) Theme {
	value = strings.Trim(strings.TrimSpace(value), `"`)
	if strings.EqualFold(value, string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// ThemeChange is delivered to subscribers after SetTheme.
type ThemeChange struct {
	Previous  Theme
	Theme     Theme
	Effective Theme
}

// Palette is the resolved visual theme.
type Palette struct {
	Name   Theme
	Tokens map[string]string
}

// ClassName is the root element class toggled by the palette.
func (p Palette) ClassName() string {
	return string(p.Name)
}

// CSSVariables normalizes token keys into CSS variable names.
func (p Palette) CSSVariables() map[string]string {
	if len(p.Tokens) == 0 {
		return nil
	}
	vars := make(map[string]string, len(p.Tokens))
	for key, value := range p.Tokens {
		name := normalizeCSSVariable(key)
		if name == "" {
			continue
		}
		vars[name] = value
	}
	return vars
}

// CSSVariablesInline renders the CSS variable map as a style string.
func (p Palette) CSSVariablesInline() string {
	vars := p.CSSVariables()
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for _, key := range keys {
		value := vars[key]
		if value == "" {
			continue
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}

func normalizeCSSVariable(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}

// DefaultPalettes returns the built-in light and dark token sets.
func DefaultPalettes() map[Theme]Palette {
	return map[Theme]Palette{
		ThemeLight: {Name: ThemeLight, Tokens: map[string]string{
			"background":         "#f8fafc",
			"foreground":         "#0f172a",
			"card":               "#ffffff",
			"card-foreground":    "#0f172a",
			"muted":              "#f1f5f9",
			"muted-foreground":   "#64748b",
			"border":             "#e2e8f0",
			"primary":            "#2563eb",
			"primary-foreground": "#ffffff",
			"sidebar":            "#ffffff",
			"success":            "#16a34a",
			"danger":             "#dc2626",
			"warning":            "#d97706",
		}},
		ThemeDark: {Name: ThemeDark, Tokens: map[string]string{
			"background":         "#020617",
			"foreground":         "#e2e8f0",
			"card":               "#0f172a",
			"card-foreground":    "#e2e8f0",
			"muted":              "#1e293b",
			"muted-foreground":   "#94a3b8",
			"border":             "#1e293b",
			"primary":            "#3b82f6",
			"primary-foreground": "#ffffff",
			"sidebar":            "#0f172a",
			"success":            "#22c55e",
			"danger":             "#f87171",
			"warning":            "#fbbf24",
		}},
	}
}

// ThemeStoreOption customizes a theme store.
type ThemeStoreOption func(*ThemeStore)

// WithPalettes replaces the token sets used for light and dark.
func WithPalettes(palettes map[Theme]Palette) ThemeStoreOption {
	return func(s *ThemeStore) {
		if len(palettes) > 0 {
			s.palettes = palettes
		}
	}
}

// WithThemeTelemetry reports swallowed storage failures.
func WithThemeTelemetry(t Telemetry) ThemeStoreOption {
	return func(s *ThemeStore) {
		s.telemetry = normalizeTelemetry(t)
	}
}

// ThemeStore holds the theme preference of one shell. The stored value is read
// once at construction; writes are persisted best effort.
type ThemeStore struct {
	mu        sync.RWMutex
	theme     Theme
	storage   ThemeStorage
	scheme    SchemeSource
	palettes  map[Theme]Palette
	telemetry Telemetry
	subs      map[int]func(ThemeChange)
	next      int
}

// NewThemeStore loads the preference from storage, falling back to system
// when the value is missing, invalid or unreadable.
func NewThemeStore(ctx context.Context, storage ThemeStorage, scheme SchemeSource, opts ...ThemeStoreOption) *ThemeStore {
	store := &ThemeStore{
		theme:     ThemeSystem,
		storage:   storage,
		scheme:    scheme,
		palettes:  DefaultPalettes(),
		telemetry: noopTelemetry{},
		subs:      map[int]func(ThemeChange){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.scheme == nil {
		store.scheme = StaticScheme(ThemeLight)
	}
	if storage == nil {
		return store
	}
	raw, err := storage.Get(ctx, ThemeStorageKey)
	if err != nil {
		store.telemetry.Record(ctx, "shell.theme.storage_error", map[string]any{"op": "get", "error": err.Error()})
		return store
	}
	if theme, err := ParseTheme(raw); err == nil {
		store.theme = theme
	}
	return store
}

// Theme returns the stored preference.
func (s *ThemeStore) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme updates the preference, persists it and notifies subscribers.
// Only an invalid theme is reported as an error.
func (s *ThemeStore) SetTheme(ctx context.Context, theme Theme) error {
	theme, err := ParseTheme(string(theme))
	if err != nil {
		return err
	}
	s.mu.Lock()
	previous := s.theme
	s.theme = theme
	subs := make([]func(ThemeChange), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Set(ctx, ThemeStorageKey, string(theme)); err != nil {
			s.telemetry.Record(ctx, "shell.theme.storage_error", map[string]any{"op": "set", "error": err.Error()})
		}
	}
	change := ThemeChange{Previous: previous, Theme: theme, Effective: s.resolve(ctx, theme)}
	for _, fn := range subs {
		fn(change)
	}
	return nil
}

// Toggle switches dark to light and anything else to dark.
func (s *ThemeStore) Toggle(ctx context.Context) Theme {
	next := ThemeDark
	if s.Theme() == ThemeDark {
		next = ThemeLight
	}
	_ = s.SetTheme(ctx, next)
	return next
}

// Effective resolves system against the client scheme on every call.
func (s *ThemeStore) Effective(ctx context.Context) Theme {
	return s.resolve(ctx, s.Theme())
}

// Palette returns the tokens of the effective theme.
func (s *ThemeStore) Palette(ctx context.Context) Palette {
	effective := s.Effective(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if palette, ok := s.palettes[effective]; ok {
		return palette
	}
	return Palette{Name: effective}
}

// Subscribe registers fn for preference changes and returns a cancel func.
func (s *ThemeStore) Subscribe(fn func(ThemeChange)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *ThemeStore) resolve(ctx context.Context, theme Theme) Theme {
	if theme != ThemeSystem {
		return theme
	}
	return normalizeScheme(s.scheme.PreferredScheme(ctx))
}

func normalizeScheme(theme Theme) Theme {
	if theme == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// MemoryThemeStorage is an in-process ThemeStorage.
type MemoryThemeStorage struct {
	mu     sync.RWMutex
	values map[string]string
	// Err, when set, is returned from every call.
	Err error
}

// NewMemoryThemeStorage creates an empty storage.
func NewMemoryThemeStorage() *MemoryThemeStorage {
	return &MemoryThemeStorage{values: map[string]string{}}
}

// Get implements ThemeStorage.
func (m *MemoryThemeStorage) Get(_ context.Context, key string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// Set implements ThemeStorage.
func (m *MemoryThemeStorage) Set(_ context.Context, key, value string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}
