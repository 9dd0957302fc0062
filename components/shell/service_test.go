package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-admin-shell/pkg/activity"
)

func newTestService(t *testing.T, opts Options) (*Service, *Session) {
	t.Helper()
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore(WithAfterFunc(func(time.Duration, func()) {}))
	}
	svc, err := NewService(opts)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	session, created, err := svc.EnsureSession(context.Background(), "")
	if err != nil || !created {
		t.Fatalf("ensure session: %v created=%v", err, created)
	}
	return svc, session
}

func TestServiceOpenMenuItem(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("")
	defer cancel()
	svc, session := newTestService(t, Options{Events: hook})
	en := mustVariant(t, "en")

	nav, err := svc.OpenMenuItem(context.Background(), session.ID, en, "products")
	if err != nil {
		t.Fatalf("open menu item: %v", err)
	}
	if nav.Path != "/ecommerce/products" {
		t.Fatalf("unexpected navigation %+v", nav)
	}
	state, _ := svc.State(context.Background(), session.ID)
	if len(state.OpenTabs) != 1 || state.OpenTabs[0].Title != "Products" || state.OpenTabs[0].Icon != "package" {
		t.Fatalf("unexpected tabs %+v", state.OpenTabs)
	}
	select {
	case evt := <-events:
		if evt.Type != "navigate" || evt.SessionID != session.ID {
			t.Fatalf("unexpected event %+v", evt)
		}
	default:
		t.Fatalf("expected navigate event")
	}

	if _, err := svc.OpenMenuItem(context.Background(), session.ID, en, "ecommerce"); !errors.Is(err, ErrUnknownMenuItem) {
		t.Fatalf("expected submenu to be rejected, got %v", err)
	}
	if _, err := svc.OpenMenuItem(context.Background(), session.ID, en, "nope"); !errors.Is(err, ErrUnknownMenuItem) {
		t.Fatalf("expected unknown item error, got %v", err)
	}
}

func TestServiceUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	if _, err := svc.OpenTab(context.Background(), "missing", Tab{ID: "x", Path: "/x"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.State(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceSyncRouteSkipsLogin(t *testing.T) {
	svc, session := newTestService(t, Options{})
	if _, added, _ := svc.SyncRoute(context.Background(), session.ID, "/login"); added {
		t.Fatalf("login must not create a tab")
	}
	tab, added, err := svc.SyncRoute(context.Background(), session.ID, "/help")
	if err != nil || !added || tab.Title != "Help" {
		t.Fatalf("unexpected sync result %+v %v %v", tab, added, err)
	}
	if _, added, _ := svc.SyncRoute(context.Background(), session.ID, "/favicon.ico"); added {
		t.Fatalf("favicon fetch must not create a tab")
	}
	if state := session.Navigator.State(); state.ActiveTabID != "help" || len(state.OpenTabs) != 1 {
		t.Fatalf("asset fetch changed the tab bar: %+v", state)
	}
}

func TestServiceCloseTabFlow(t *testing.T) {
	svc, session := newTestService(t, Options{})
	ctx := context.Background()
	_, _ = svc.OpenTab(ctx, session.ID, Tab{ID: "users", Path: "/users"})
	_, _ = svc.OpenTab(ctx, session.ID, Tab{ID: "settings", Path: "/settings"})
	nav, err := svc.CloseTab(ctx, session.ID, "settings")
	if err != nil || nav == nil || nav.Path != "/users" {
		t.Fatalf("unexpected close result %+v %v", nav, err)
	}
	nav, _ = svc.CloseTab(ctx, session.ID, "users")
	if nav == nil || nav.Path != RootPath {
		t.Fatalf("expected root navigation, got %+v", nav)
	}
}

func TestServiceSidebarAndViewport(t *testing.T) {
	svc, session := newTestService(t, Options{})
	ctx := context.Background()
	if open, _ := svc.ApplyViewport(ctx, session.ID, 400); open {
		t.Fatalf("expected closed sidebar on narrow viewport")
	}
	if open, _ := svc.ToggleSidebar(ctx, session.ID); !open {
		t.Fatalf("expected toggle to open")
	}
	if err := svc.SetSidebarOpen(ctx, session.ID, false); err != nil {
		t.Fatalf("set sidebar: %v", err)
	}
	if _, err := svc.ApplyViewport(ctx, session.ID, -1); err == nil {
		t.Fatalf("expected negative width error")
	}
}

func TestServiceThemeEvents(t *testing.T) {
	hook := NewBroadcastHook()
	events, cancel := hook.Subscribe("")
	defer cancel()
	svc, session := newTestService(t, Options{Events: hook})
	store := NewThemeStore(context.Background(), NewMemoryThemeStorage(), nil)

	next, err := svc.ToggleTheme(context.Background(), session.ID, store)
	if err != nil || next != ThemeDark {
		t.Fatalf("unexpected toggle %q %v", next, err)
	}
	evt := <-events
	if evt.Type != "theme" || evt.Theme != ThemeDark {
		t.Fatalf("unexpected event %+v", evt)
	}
	if err := svc.SetTheme(context.Background(), session.ID, store, Theme("neon")); err == nil {
		t.Fatalf("expected invalid theme error")
	}
	if err := svc.SetTheme(context.Background(), session.ID, nil, ThemeDark); err == nil {
		t.Fatalf("expected missing store error")
	}
}

func TestServiceSaveSettings(t *testing.T) {
	var scheduled []time.Duration
	var resets []func()
	sessions := NewInMemorySessionStore(WithAfterFunc(func(d time.Duration, fn func()) {
		scheduled = append(scheduled, d)
		resets = append(resets, fn)
	}))
	capture := &activity.CaptureHook{}
	svc, session := newTestService(t, Options{
		Sessions:       sessions,
		ActivityHooks:  activity.Hooks{capture},
		ActivityConfig: activity.Config{Enabled: true},
	})
	ctx := ContextWithActivity(context.Background(), ActivityContext{ActorID: "actor-1"})
	fa := mustVariant(t, "fa")

	form := DefaultSettings()
	form.SiteName = "  پنل جدید "
	if err := svc.SaveSettings(ctx, session.ID, fa, form); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if session.Settings().SiteName != "پنل جدید" {
		t.Fatalf("expected trimmed site name, got %q", session.Settings().SiteName)
	}
	if !session.Banner.Visible() {
		t.Fatalf("expected banner visible after save")
	}
	if len(scheduled) != 1 || scheduled[0] != DefaultBannerTimeout {
		t.Fatalf("expected one 3s reset, got %v", scheduled)
	}
	resets[0]()
	if session.Banner.Visible() {
		t.Fatalf("expected banner hidden after reset")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected activity event, got %d", len(capture.Events))
	}
	evt := capture.Events[0]
	if evt.Verb != "shell.settings.save" || evt.ActorID != "actor-1" || evt.Channel != activity.DefaultChannel {
		t.Fatalf("unexpected activity %+v", evt)
	}
}

func TestServiceSaveSettingsRejectsInvalid(t *testing.T) {
	svc, session := newTestService(t, Options{})
	fa := mustVariant(t, "fa")
	form := DefaultSettings()
	form.SMTPHost = ""
	err := svc.SaveSettings(context.Background(), session.ID, fa, form)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["smtp_host"] != "میزبان SMTP الزامی است" {
		t.Fatalf("expected localized message, got %v", verr.Fields)
	}
	if session.Settings().SMTPHost != "smtp.example.com" {
		t.Fatalf("invalid settings must not be stored")
	}
	if session.Banner.Visible() {
		t.Fatalf("banner must stay hidden on failure")
	}
}

func TestServiceSubmitLogin(t *testing.T) {
	capture := &activity.CaptureHook{}
	svc, _ := newTestService(t, Options{
		ActivityHooks:  activity.Hooks{capture},
		ActivityConfig: activity.Config{Enabled: true},
	})
	fa := mustVariant(t, "fa")

	err := svc.SubmitLogin(context.Background(), fa, LoginForm{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["email"] != "ایمیل الزامی است" || verr.Fields["password"] != "رمز عبور الزامی است" {
		t.Fatalf("unexpected messages %v", verr.Fields)
	}
	if err := svc.SubmitLogin(context.Background(), fa, LoginForm{Email: "ali@example.com", Password: "x", RememberMe: true}); err != nil {
		t.Fatalf("expected any non-empty credentials to pass: %v", err)
	}
	if len(capture.Events) != 1 || capture.Events[0].ObjectID != "ali@example.com" {
		t.Fatalf("unexpected activity %+v", capture.Events)
	}
}

func TestBannerRetriggerRacesHarmlessly(t *testing.T) {
	var resets []func()
	banner := NewBanner(0, func(d time.Duration, fn func()) { resets = append(resets, fn) })
	banner.Show()
	banner.Show()
	if len(resets) != 2 {
		t.Fatalf("expected a timer per show, got %d", len(resets))
	}
	resets[0]()
	if banner.Visible() {
		t.Fatalf("first timer hides the banner even after a re-trigger")
	}
	resets[1]()
	if banner.Visible() {
		t.Fatalf("expected terminal hidden state")
	}
}

func TestSessionStoreEnsure(t *testing.T) {
	store := NewInMemorySessionStore(WithNavigatorOptions(WithSidebarBreakpoint(1000)))
	ctx := context.Background()
	session, created, err := store.Ensure(ctx, "")
	if err != nil || !created {
		t.Fatalf("ensure: %v", err)
	}
	again, created, _ := store.Ensure(ctx, session.ID)
	if created || again != session {
		t.Fatalf("expected the same session")
	}
	if _, _, err := store.Ensure(ctx, "not-a-uuid"); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if session.Navigator.ApplyViewport(900) {
		t.Fatalf("expected navigator options applied")
	}
	_ = store.Delete(ctx, session.ID)
	if _, err := store.Get(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected deleted session")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestSessionStoreEvictsIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemorySessionStore(
		WithSessionTTL(time.Hour),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if _, _, err := store.Ensure(ctx, ""); err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
	kept, _, _ := store.Ensure(ctx, "")

	now = now.Add(45 * time.Minute)
	if _, err := store.Get(ctx, kept.ID); err != nil {
		t.Fatalf("expected live session: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if removed := store.Sweep(); removed != 100 {
		t.Fatalf("expected 100 idle sessions swept, got %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected only the recently seen session, got %d", store.Len())
	}

	now = now.Add(2 * time.Hour)
	if _, err := store.Get(ctx, kept.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to unmount on access, got %v", err)
	}
	again, created, err := store.Ensure(ctx, kept.ID)
	if err != nil || !created || again == kept {
		t.Fatalf("expected a fresh shell under the expired id")
	}
}

func TestSessionStoreWithoutTTLKeepsSessions(t *testing.T) {
	now := time.Now()
	store := NewInMemorySessionStore(WithClock(func() time.Time { return now }))
	session, _, _ := store.Ensure(context.Background(), "")
	now = now.Add(1000 * time.Hour)
	if store.Sweep() != 0 {
		t.Fatalf("expected no eviction without a ttl")
	}
	if _, err := store.Get(context.Background(), session.ID); err != nil {
		t.Fatalf("expected session kept: %v", err)
	}
}
