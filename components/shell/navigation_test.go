package shell

import (
	"sync"
	"testing"
)

func TestOpenTabDoesNotDuplicate(t *testing.T) {
	nav := NewNavigator()
	nav.OpenTab(Tab{ID: "users", Title: "Users", Path: "/users"})
	nav.OpenTab(Tab{ID: "settings", Title: "Settings", Path: "/settings"})

	got := nav.OpenTab(Tab{ID: "users", Title: "Users", Path: "/users"})
	if got.Path != "/users" {
		t.Fatalf("expected navigation to /users, got %q", got.Path)
	}
	state := nav.State()
	if len(state.OpenTabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(state.OpenTabs))
	}
	if state.ActiveTabID != "users" {
		t.Fatalf("expected users active, got %q", state.ActiveTabID)
	}
	if state.OpenTabs[0].ID != "users" || state.OpenTabs[1].ID != "settings" {
		t.Fatalf("insertion order not preserved: %+v", state.OpenTabs)
	}
}

func TestCloseActiveTabActivatesLastRemaining(t *testing.T) {
	nav := NewNavigator()
	nav.OpenTab(Tab{ID: "a", Path: "/a"})
	nav.OpenTab(Tab{ID: "b", Path: "/b"})
	nav.OpenTab(Tab{ID: "c", Path: "/c"})
	nav.OpenTab(Tab{ID: "a", Path: "/a"})

	next, ok := nav.CloseTab("a")
	if !ok {
		t.Fatalf("expected tab to close")
	}
	if next == nil || next.Path != "/c" {
		t.Fatalf("expected navigation to last tab /c, got %+v", next)
	}
	state := nav.State()
	if state.ActiveTabID != "c" {
		t.Fatalf("expected c active (last, not adjacent b), got %q", state.ActiveTabID)
	}
}

func TestCloseInactiveTabKeepsActive(t *testing.T) {
	nav := NewNavigator()
	nav.OpenTab(Tab{ID: "a", Path: "/a"})
	nav.OpenTab(Tab{ID: "b", Path: "/b"})

	next, ok := nav.CloseTab("a")
	if !ok || next != nil {
		t.Fatalf("expected no navigation, got %+v ok=%v", next, ok)
	}
	if state := nav.State(); state.ActiveTabID != "b" || len(state.OpenTabs) != 1 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestCloseUnknownTab(t *testing.T) {
	nav := NewNavigator()
	if _, ok := nav.CloseTab("missing"); ok {
		t.Fatalf("expected unknown tab to report false")
	}
}

func TestCloseLastTabNavigatesToRoot(t *testing.T) {
	nav := NewNavigator()
	nav.OpenTab(Tab{ID: "users", Path: "/users"})
	next, _ := nav.CloseTab("users")
	if next == nil || next.Path != RootPath {
		t.Fatalf("expected navigation to root, got %+v", next)
	}
	state := nav.State()
	if state.ActiveTabID != "" {
		t.Fatalf("expected no active tab, got %q", state.ActiveTabID)
	}
	if _, ok := state.ActiveTab(); ok {
		t.Fatalf("expected ActiveTab to report none")
	}
}

func TestNavigationScenario(t *testing.T) {
	nav := NewNavigator()

	nav.OpenTab(Tab{ID: "users", Path: "/users"})
	assertTabs(t, nav.State(), "users", "users")

	nav.OpenTab(Tab{ID: "settings", Path: "/settings"})
	assertTabs(t, nav.State(), "settings", "users", "settings")

	nav.CloseTab("settings")
	assertTabs(t, nav.State(), "users", "users")

	next, _ := nav.CloseTab("users")
	assertTabs(t, nav.State(), "")
	if next == nil || next.Path != "/" {
		t.Fatalf("expected navigation to /, got %+v", next)
	}
}

func TestSyncToRouteMatchingPathDoesNotGrow(t *testing.T) {
	nav := NewNavigator()
	nav.OpenTab(Tab{ID: "members", Title: "Users", Path: "/users"})
	nav.OpenTab(Tab{ID: "settings", Path: "/settings"})

	tab, added := nav.SyncToRoute("/users/")
	if added {
		t.Fatalf("expected no tab added")
	}
	if tab.ID != "members" {
		t.Fatalf("expected existing tab, got %+v", tab)
	}
	state := nav.State()
	if len(state.OpenTabs) != 2 || state.ActiveTabID != "members" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestSyncToRouteDerivesTab(t *testing.T) {
	nav := NewNavigator()
	tab, added := nav.SyncToRoute("/analytics/performance?range=7d")
	if !added {
		t.Fatalf("expected derived tab")
	}
	if tab.ID != "performance" || tab.Title != "Performance" || tab.Path != "/analytics/performance" {
		t.Fatalf("unexpected derived tab %+v", tab)
	}
	if tab.Icon != DerivedTabIcon {
		t.Fatalf("expected generic icon, got %q", tab.Icon)
	}
	state := nav.State()
	if len(state.OpenTabs) != 1 || state.ActiveTabID != "performance" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestSyncToRouteIgnoresRootPaths(t *testing.T) {
	nav := NewNavigator()
	for _, path := range []string{"/", "", "/dashboard", "/dashboard/"} {
		if _, added := nav.SyncToRoute(path); added {
			t.Fatalf("expected %q not to add a tab", path)
		}
	}
	if got := len(nav.State().OpenTabs); got != 0 {
		t.Fatalf("expected no tabs, got %d", got)
	}
}

func TestSyncToRouteDuplicateDerivedID(t *testing.T) {
	nav := NewNavigator()
	nav.SyncToRoute("/ecommerce/orders")
	tab, added := nav.SyncToRoute("/archive/orders")
	if added {
		t.Fatalf("expected derived id collision to reuse the tab")
	}
	if tab.Path != "/archive/orders" {
		t.Fatalf("expected derived tab for new path, got %+v", tab)
	}
	state := nav.State()
	if len(state.OpenTabs) != 1 || state.ActiveTabID != "orders" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestDeriveTabUsesUnicodeSegments(t *testing.T) {
	tab := DeriveTab("/گزارش‌ها/")
	if tab.ID != "گزارش‌ها" || tab.Title != "گزارش‌ها" {
		t.Fatalf("unexpected tab %+v", tab)
	}
	if got := DeriveTab("/").ID; got != "page" {
		t.Fatalf("expected page fallback, got %q", got)
	}
}

func TestToggleMenuFlipsMembership(t *testing.T) {
	nav := NewNavigator()
	if !nav.ToggleMenu("analytics") {
		t.Fatalf("expected analytics open")
	}
	if !nav.ToggleMenu("ecommerce") {
		t.Fatalf("expected ecommerce open")
	}
	state := nav.State()
	if !state.MenuOpen("analytics") || !state.MenuOpen("ecommerce") {
		t.Fatalf("expected both menus open: %+v", state.OpenMenus)
	}
	if nav.ToggleMenu("analytics") {
		t.Fatalf("expected analytics closed")
	}
	if ids := nav.State().OpenMenuIDs(); len(ids) != 1 || ids[0] != "ecommerce" {
		t.Fatalf("unexpected open menus %v", ids)
	}
}

func TestViewportOverridesManualToggle(t *testing.T) {
	nav := NewNavigator()
	if !nav.State().SidebarOpen {
		t.Fatalf("expected sidebar open initially")
	}
	if nav.ApplyViewport(767) {
		t.Fatalf("expected sidebar closed below breakpoint")
	}
	if !nav.ToggleSidebar() {
		t.Fatalf("expected manual open")
	}
	if nav.ApplyViewport(500) {
		t.Fatalf("expected resize to override manual open")
	}
	if !nav.ApplyViewport(768) {
		t.Fatalf("expected sidebar open at breakpoint")
	}
	nav.SetSidebarOpen(false)
	if nav.State().SidebarOpen {
		t.Fatalf("expected sidebar closed")
	}
}

func TestCustomBreakpoint(t *testing.T) {
	nav := NewNavigator(WithSidebarBreakpoint(1024))
	if nav.ApplyViewport(900) {
		t.Fatalf("expected sidebar closed under custom breakpoint")
	}
}

func TestStateIsACopy(t *testing.T) {
	nav := NewNavigator()
	nav.OpenTab(Tab{ID: "users", Path: "/users"})
	nav.ToggleMenu("x")
	state := nav.State()
	state.OpenTabs[0].ID = "mutated"
	state.OpenMenus["y"] = true
	fresh := nav.State()
	if fresh.OpenTabs[0].ID != "users" || fresh.MenuOpen("y") {
		t.Fatalf("state leaked internal references")
	}
}

func TestNavigatorConcurrentAccess(t *testing.T) {
	nav := NewNavigator()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nav.SyncToRoute("/users")
			nav.OpenTab(Tab{ID: "settings", Path: "/settings"})
			nav.ToggleMenu("m")
			nav.CloseTab("settings")
		}(i)
	}
	wg.Wait()
	state := nav.State()
	seen := map[string]bool{}
	for _, tab := range state.OpenTabs {
		if seen[tab.ID] {
			t.Fatalf("duplicate tab %q", tab.ID)
		}
		seen[tab.ID] = true
	}
	if state.ActiveTabID != "" && !seen[state.ActiveTabID] {
		t.Fatalf("active tab %q not open", state.ActiveTabID)
	}
}

func assertTabs(t *testing.T, state NavigationState, active string, ids ...string) {
	t.Helper()
	if state.ActiveTabID != active {
		t.Fatalf("expected active %q, got %q", active, state.ActiveTabID)
	}
	if len(state.OpenTabs) != len(ids) {
		t.Fatalf("expected %d tabs, got %+v", len(ids), state.OpenTabs)
	}
	for i, id := range ids {
		if state.OpenTabs[i].ID != id {
			t.Fatalf("expected tab %d to be %q, got %q", i, id, state.OpenTabs[i].ID)
		}
	}
}

func TestIsAssetPath(t *testing.T) {
	assets := []string{"/favicon.ico", "/robots.txt", "/apple-touch-icon.png", "/.well-known/security.txt", "/static/app.js?v=2"}
	for _, path := range assets {
		if !IsAssetPath(path) {
			t.Fatalf("expected %s to be an asset", path)
		}
	}
	pages := []string{"/", "", "/users", "/reports/monthly/", "/help#faq", "/v1.", "/settings?tab=mail.smtp"}
	for _, path := range pages {
		if IsAssetPath(path) {
			t.Fatalf("expected %s to be a page", path)
		}
	}
}
