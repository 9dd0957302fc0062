package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-admin-shell/pkg/activity"
)

// Options configures the shell service. Nil fields receive in-memory defaults.
type Options struct {
	Sessions       SessionStore
	Variants       *VariantRegistry
	Pages          *PageRegistry
	Validator      FormValidator
	Translations   TranslationService
	Telemetry      Telemetry
	Events         EventHook
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
	Now            func() time.Time
}

// Service is the single entry point for shell state transitions.
type Service struct {
	sessions     SessionStore
	variants     *VariantRegistry
	pages        *PageRegistry
	validator    FormValidator
	translations TranslationService
	telemetry    Telemetry
	events       EventHook
	activity     *activity.Emitter
	now          func() time.Time
}

// NewService wires the provided options.
func NewService(opts Options) (*Service, error) {
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore()
	}
	if opts.Variants == nil {
		variants, err := DefaultVariantRegistry()
		if err != nil {
			return nil, fmt.Errorf("shell: load built-in variants: %w", err)
		}
		opts.Variants = variants
	}
	if opts.Pages == nil {
		opts.Pages = DefaultPageRegistry(nil)
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaFormValidator()
	}
	if opts.Events == nil {
		opts.Events = noopEventHook{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		sessions:     opts.Sessions,
		variants:     opts.Variants,
		pages:        opts.Pages,
		validator:    opts.Validator,
		translations: opts.Translations,
		telemetry:    normalizeTelemetry(opts.Telemetry),
		events:       opts.Events,
		activity:     activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
		now:          opts.Now,
	}, nil
}

// Variants exposes the variant registry.
func (s *Service) Variants() *VariantRegistry { return s.variants }

// Pages exposes the page registry.
func (s *Service) Pages() *PageRegistry { return s.pages }

// Localizer builds a localizer honoring the configured translations.
func (s *Service) Localizer(variant Variant) *Localizer {
	return NewLocalizer(variant, s.translations)
}

// EnsureSession returns the session for id, mounting a new shell when needed.
func (s *Service) EnsureSession(ctx context.Context, id string) (*Session, bool, error) {
	session, created, err := s.sessions.Ensure(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.telemetry.Record(ctx, "shell.session.mount", map[string]any{"session_id": session.ID})
	}
	return session, created, nil
}

// Session returns an existing session.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Get(ctx, id)
}

// EndSession unmounts the shell.
func (s *Service) EndSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// State returns the navigation snapshot of a session.
func (s *Service) State(ctx context.Context, sessionID string) (NavigationState, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return NavigationState{}, err
	}
	return session.Navigator.State(), nil
}

// OpenTab opens tab in the session tab bar.
func (s *Service) OpenTab(ctx context.Context, sessionID string, tab Tab) (Navigation, error) {
	if tab.ID == "" {
		return Navigation{}, errors.New("shell: tab id is required")
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Navigation{}, err
	}
	tab.Path = CleanPath(tab.Path)
	nav := session.Navigator.OpenTab(tab)
	s.publish(ctx, ShellEvent{Type: "navigate", SessionID: sessionID, Path: nav.Path})
	return nav, nil
}

// OpenMenuItem opens the tab of a leaf menu item of the variant.
func (s *Service) OpenMenuItem(ctx context.Context, sessionID string, variant Variant, menuID string) (Navigation, error) {
	item, ok := variant.FindMenuItem(menuID)
	if !ok || item.IsSubmenu() {
		return Navigation{}, fmt.Errorf("%w: %q", ErrUnknownMenuItem, menuID)
	}
	return s.OpenTab(ctx, sessionID, item.Tab())
}

// CloseTab closes a tab; the navigation is nil when the displayed page stays.
func (s *Service) CloseTab(ctx context.Context, sessionID, tabID string) (*Navigation, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	nav, closed := session.Navigator.CloseTab(tabID)
	if closed && nav != nil {
		s.publish(ctx, ShellEvent{Type: "navigate", SessionID: sessionID, Path: nav.Path})
	}
	return nav, nil
}

// ToggleMenu flips a submenu and reports whether it is open.
func (s *Service) ToggleMenu(ctx context.Context, sessionID, menuID string) (bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.Navigator.ToggleMenu(menuID), nil
}

// SyncRoute reconciles the tab bar with a route the browser arrived at. The
// login page lives outside the shell and is ignored.
func (s *Service) SyncRoute(ctx context.Context, sessionID, path string) (Tab, bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return Tab{}, false, err
	}
	if CleanPath(path) == LoginPath || IsAssetPath(path) {
		return Tab{}, false, nil
	}
	tab, added := session.Navigator.SyncToRoute(path)
	return tab, added, nil
}

// SetSidebarOpen forces the sidebar state.
func (s *Service) SetSidebarOpen(ctx context.Context, sessionID string, open bool) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Navigator.SetSidebarOpen(open)
	return nil
}

// ToggleSidebar flips the sidebar.
func (s *Service) ToggleSidebar(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.Navigator.ToggleSidebar(), nil
}

// ApplyViewport recomputes the sidebar from a reported viewport width.
func (s *Service) ApplyViewport(ctx context.Context, sessionID string, width int) (bool, error) {
	if width < 0 {
		return false, fmt.Errorf("shell: invalid viewport width %d", width)
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.Navigator.ApplyViewport(width), nil
}

// SetTheme stores the preference and notifies other windows of the session.
func (s *Service) SetTheme(ctx context.Context, sessionID string, store *ThemeStore, theme Theme) error {
	if store == nil {
		return errors.New("shell: theme store is required")
	}
	if err := store.SetTheme(ctx, theme); err != nil {
		return err
	}
	s.publish(ctx, ShellEvent{Type: "theme", SessionID: sessionID, Theme: store.Theme()})
	return nil
}

// ToggleTheme switches dark to light and anything else to dark.
func (s *Service) ToggleTheme(ctx context.Context, sessionID string, store *ThemeStore) (Theme, error) {
	if store == nil {
		return "", errors.New("shell: theme store is required")
	}
	next := store.Toggle(ctx)
	s.publish(ctx, ShellEvent{Type: "theme", SessionID: sessionID, Theme: next})
	return next, nil
}

// SaveSettings validates and stores the settings form and shows the
// confirmation banner.
func (s *Service) SaveSettings(ctx context.Context, sessionID string, variant Variant, form SettingsForm) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	form = form.normalized()
	if err := s.validate(ctx, FormSettings, variant, form); err != nil {
		return err
	}
	session.saveSettings(form)
	session.Banner.Show()
	s.publish(ctx, ShellEvent{Type: "settings", SessionID: sessionID})
	s.emitActivity(ctx, activity.Event{
		Verb:       "shell.settings.save",
		ObjectType: "settings",
		ObjectID:   sessionID,
		Metadata: map[string]any{
			"site_name":   form.SiteName,
			"maintenance": form.Maintenance,
			"locale":      variant.Locale,
		},
	})
	return nil
}

// SubmitLogin enforces required fields only; credentials are never checked.
func (s *Service) SubmitLogin(ctx context.Context, variant Variant, form LoginForm) error {
	form = form.normalized()
	if err := s.validate(ctx, FormLogin, variant, form); err != nil {
		return err
	}
	s.emitActivity(ctx, activity.Event{
		Verb:       "shell.login.submit",
		ObjectType: "login",
		ObjectID:   form.Email,
		Metadata: map[string]any{
			"remember_me": form.RememberMe,
			"locale":      variant.Locale,
		},
	})
	return nil
}

func (s *Service) validate(ctx context.Context, form string, variant Variant, payload any) error {
	keys, err := s.validator.Validate(form, payload)
	if err != nil {
		return err
	}
	localizer := s.Localizer(variant)
	if verr := localizeFieldErrors(form, keys, func(key string) string { return localizer.Text(ctx, key) }); verr != nil {
		s.telemetry.Record(ctx, "shell.form.invalid", map[string]any{"form": form, "fields": len(verr.Fields)})
		return verr
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event ShellEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.telemetry.Record(ctx, "shell.events.error", map[string]any{"type": event.Type, "error": err.Error()})
	}
}

func (s *Service) emitActivity(ctx context.Context, event activity.Event) {
	if !s.activity.Enabled() {
		return
	}
	meta := activityContextFrom(ctx)
	event.ActorID = meta.ActorID
	event.UserID = meta.UserID
	event.TenantID = meta.TenantID
	event.OccurredAt = s.now().UTC()
	if err := s.activity.Emit(ctx, event); err != nil {
		s.telemetry.Record(ctx, "shell.activity.error", map[string]any{"verb": event.Verb, "error": err.Error()})
	}
}
