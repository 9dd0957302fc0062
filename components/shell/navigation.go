package shell

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// NavigatorOption customizes a navigator.
type NavigatorOption func(*Navigator)

// WithSidebarBreakpoint overrides the viewport width that opens the sidebar.
func WithSidebarBreakpoint(width int) NavigatorOption {
	return func(n *Navigator) {
		if width > 0 {
			n.breakpoint = width
		}
	}
}

// WithRootPaths overrides the routes that never produce a tab on sync.
func WithRootPaths(paths ...string) NavigatorOption {
	return func(n *Navigator) {
		if len(paths) == 0 {
			return
		}
		n.roots = make(map[string]bool, len(paths))
		for _, path := range paths {
			n.roots[CleanPath(path)] = true
		}
	}
}

// Navigator owns the tab bar, submenu expansion and sidebar state of one shell.
// Every transition runs under a single lock so route observation and tab
// actions never interleave.
type Navigator struct {
	mu          sync.Mutex
	tabs        []Tab
	active      string
	menus       map[string]bool
	sidebarOpen bool
	breakpoint  int
	roots       map[string]bool
}

// NewNavigator returns an empty navigator with the sidebar open.
func NewNavigator(opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		menus:       map[string]bool{},
		sidebarOpen: true,
		breakpoint:  DefaultSidebarBreakpoint,
		roots: map[string]bool{
			RootPath:      true,
			DashboardPath: true,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// OpenTab appends the tab unless its id is already open, activates it and
// navigates to its path.
func (n *Navigator) OpenTab(tab Tab) Navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.openTabLocked(tab)
}

func (n *Navigator) openTabLocked(tab Tab) Navigation {
	if n.indexLocked(tab.ID) < 0 {
		n.tabs = append(n.tabs, tab)
	}
	n.active = tab.ID
	return Navigation{Path: tab.Path}
}

// CloseTab removes the tab. When the active tab closes the last remaining tab
// becomes active; when none remain the shell returns to the root path. The
// boolean is false when the id was not open.
func (n *Navigator) CloseTab(id string) (*Navigation, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	idx := n.indexLocked(id)
	if idx < 0 {
		return nil, false
	}
	n.tabs = append(n.tabs[:idx:idx], n.tabs[idx+1:]...)
	if n.active != id {
		return nil, true
	}
	if len(n.tabs) == 0 {
		n.active = ""
		return &Navigation{Path: RootPath}, true
	}
	last := n.tabs[len(n.tabs)-1]
	n.active = last.ID
	return &Navigation{Path: last.Path}, true
}

// ToggleMenu flips the submenu and reports whether it is now open.
func (n *Navigator) ToggleMenu(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.menus[id] {
		delete(n.menus, id)
		return false
	}
	n.menus[id] = true
	return true
}

// SyncToRoute reconciles the tab bar with an externally observed route. A
// path already open activates its tab; an unknown non-root path opens a tab
// derived from its last segment. The boolean reports whether a tab was added.
func (n *Navigator) SyncToRoute(path string) (Tab, bool) {
	path = CleanPath(path)

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, tab := range n.tabs {
		if tab.Path == path {
			n.active = tab.ID
			return tab, false
		}
	}
	if n.roots[path] {
		return Tab{}, false
	}
	tab := DeriveTab(path)
	before := len(n.tabs)
	n.openTabLocked(tab)
	return tab, len(n.tabs) > before
}

// SetSidebarOpen forces the sidebar state.
func (n *Navigator) SetSidebarOpen(open bool) {
	n.mu.Lock()
	n.sidebarOpen = open
	n.mu.Unlock()
}

// ToggleSidebar flips the sidebar and returns the new state.
func (n *Navigator) ToggleSidebar() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sidebarOpen = !n.sidebarOpen
	return n.sidebarOpen
}

// ApplyViewport recomputes the sidebar from the viewport width, replacing any
// manual toggle.
func (n *Navigator) ApplyViewport(width int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sidebarOpen = width >= n.breakpoint
	return n.sidebarOpen
}

// State returns a copy of the current state.
func (n *Navigator) State() NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	state := NavigationState{
		OpenTabs:    make([]Tab, len(n.tabs)),
		ActiveTabID: n.active,
		OpenMenus:   make(map[string]bool, len(n.menus)),
		SidebarOpen: n.sidebarOpen,
	}
	copy(state.OpenTabs, n.tabs)
	for id := range n.menus {
		state.OpenMenus[id] = true
	}
	return state
}

func (n *Navigator) indexLocked(id string) int {
	for i, tab := range n.tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

// DeriveTab synthesizes a tab for a route reached without a menu action.
func DeriveTab(path string) Tab {
	path = CleanPath(path)
	id := "page"
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			id = segments[i]
			break
		}
	}
	return Tab{
		ID:    id,
		Title: capitalize(id),
		Path:  path,
		Icon:  DerivedTabIcon,
	}
}

// CleanPath strips query strings, fragments and trailing slashes.
func CleanPath(path string) string {
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return RootPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// IsAssetPath reports whether path names a file a browser fetches on its own,
// such as /favicon.ico, /robots.txt or anything under /.well-known. Those
// requests are not navigation and never reach the tab bar.
func IsAssetPath(path string) bool {
	segments := strings.Split(strings.Trim(CleanPath(path), "/"), "/")
	for _, segment := range segments {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	last := segments[len(segments)-1]
	dot := strings.LastIndex(last, ".")
	return dot > 0 && dot < len(last)-1
}

func capitalize(value string) string {
	r, size := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError {
		return value
	}
	return string(unicode.ToUpper(r)) + value[size:]
}
