package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Template names rendered around page partials.
const (
	ShellTemplate      = "shell.html"
	StandaloneTemplate = "standalone.html"
)

// ControllerOptions wires a controller.
type ControllerOptions struct {
	Service  *Service
	Renderer Renderer
	BasePath string
}

// Controller renders pages inside the shell.
type Controller struct {
	service  *Service
	renderer Renderer
	basePath string
}

// NewController builds a controller.
func NewController(opts ControllerOptions) *Controller {
	return &Controller{
		service:  opts.Service,
		renderer: opts.Renderer,
		basePath: strings.TrimRight(opts.BasePath, "/"),
	}
}

// BasePath is the mount prefix used in generated links.
func (c *Controller) BasePath() string { return c.basePath }

// PageRequest identifies what to render.
type PageRequest struct {
	SessionID string
	Variant   Variant
	Path      string
	Theme     *ThemeStore
	Form      *FormState
}

// PageView is a resolved page with its template payload.
type PageView struct {
	Page    Page
	Served  bool
	Payload map[string]any
}

// PagePayload resolves the page for the request and builds its payload.
func (c *Controller) PagePayload(ctx context.Context, req PageRequest) (PageView, error) {
	if c.service == nil {
		return PageView{}, errors.New("shell: controller requires service")
	}
	page, served := c.service.Pages().Resolve(req.Variant, req.Path)
	if page.Code == "" {
		return PageView{}, fmt.Errorf("%w: %s", ErrPageNotFound, req.Path)
	}
	localizer := c.service.Localizer(req.Variant)

	var session *Session
	if req.SessionID != "" && !page.Standalone {
		s, err := c.service.Session(ctx, req.SessionID)
		if err != nil {
			return PageView{}, err
		}
		session = s
	}

	data, err := page.Data(PageContext{
		Context:   ctx,
		Variant:   req.Variant,
		Localizer: localizer,
		Session:   session,
		Path:      CleanPath(req.Path),
		Form:      req.Form,
	})
	if err != nil {
		return PageView{}, err
	}

	payload := map[string]any{
		"base": c.basePath,
		"t":    nestCopy(req.Variant.Copy),
		"variant": map[string]any{
			"code":   req.Variant.Code,
			"locale": req.Variant.Locale,
			"lang":   req.Variant.Tag().String(),
			"dir":    string(req.Variant.Direction),
			"brand":  req.Variant.Brand,
		},
		"page": map[string]any{
			"code":  page.Code,
			"title": page.Title(ctx, localizer),
			"path":  CleanPath(req.Path),
			"icon":  page.Icon,
		},
		"theme":   c.themePayload(ctx, req.Theme),
		"data":    data,
		"actions": c.actions(),
	}
	if session != nil {
		payload["nav"] = c.navPayload(req.Variant, session.Navigator.State(), CleanPath(req.Path))
	}
	return PageView{Page: page, Served: served, Payload: payload}, nil
}

// RenderPage writes the full HTML document for the request.
func (c *Controller) RenderPage(ctx context.Context, req PageRequest, out io.Writer) (PageView, error) {
	if c.renderer == nil {
		return PageView{}, errors.New("shell: controller requires renderer")
	}
	view, err := c.PagePayload(ctx, req)
	if err != nil {
		return PageView{}, err
	}
	content, err := c.renderer.Render(view.Page.Template, view.Payload)
	if err != nil {
		return PageView{}, fmt.Errorf("shell: render %s: %w", view.Page.Template, err)
	}
	view.Payload["content"] = content
	layout := ShellTemplate
	if view.Page.Standalone || view.Payload["nav"] == nil {
		layout = StandaloneTemplate
	}
	if _, err := c.renderer.Render(layout, view.Payload, out); err != nil {
		return PageView{}, fmt.Errorf("shell: render %s: %w", layout, err)
	}
	return view, nil
}

func (c *Controller) themePayload(ctx context.Context, store *ThemeStore) map[string]any {
	if store == nil {
		store = NewThemeStore(ctx, nil, nil)
	}
	palette := store.Palette(ctx)
	next := ThemeDark
	if store.Theme() == ThemeDark {
		next = ThemeLight
	}
	return map[string]any{
		"preference": string(store.Theme()),
		"effective":  palette.ClassName(),
		"style":      palette.CSSVariablesInline(),
		"next":       string(next),
	}
}

func (c *Controller) navPayload(variant Variant, state NavigationState, current string) map[string]any {
	activePath := current
	if tab, ok := state.ActiveTab(); ok {
		activePath = tab.Path
	}
	tabs := make([]map[string]any, 0, len(state.OpenTabs))
	for _, tab := range state.OpenTabs {
		tabs = append(tabs, map[string]any{
			"id":           tab.ID,
			"title":        tab.Title,
			"icon":         tab.Icon,
			"href":         c.href(tab.Path),
			"active":       tab.ID == state.ActiveTabID,
			"close_action": c.href("/_shell/tabs/" + url.PathEscape(tab.ID) + "/close"),
		})
	}
	return map[string]any{
		"tabs":         tabs,
		"active_id":    state.ActiveTabID,
		"sidebar_open": state.SidebarOpen,
		"menu":         c.menuPayload(variant.Menu, state, activePath),
	}
}

func (c *Controller) menuPayload(items []MenuItem, state NavigationState, activePath string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{
			"id":      item.ID,
			"label":   item.Label,
			"icon":    item.Icon,
			"submenu": item.IsSubmenu(),
		}
		if item.IsSubmenu() {
			children := c.menuPayload(item.Children, state, activePath)
			active := false
			for _, child := range children {
				if child["active"] == true {
					active = true
				}
			}
			entry["children"] = children
			entry["open"] = state.MenuOpen(item.ID)
			entry["active"] = active
			entry["toggle_action"] = c.href("/_shell/menus/" + url.PathEscape(item.ID) + "/toggle")
		} else {
			entry["href"] = c.href(item.Path)
			entry["active"] = CleanPath(item.Path) == activePath
		}
		out = append(out, entry)
	}
	return out
}

func (c *Controller) actions() map[string]string {
	return map[string]string{
		"open_tab": c.href("/_shell/tabs"),
		"sidebar":  c.href("/_shell/sidebar"),
		"viewport": c.href("/_shell/viewport"),
		"theme":    c.href("/_shell/theme"),
		"state":    c.href("/_shell/state"),
		"ws":       c.href("/_shell/ws"),
		"events":   c.href("/_shell/events"),
		"static":   c.href("/_shell/static"),
		"login":    c.href(LoginPath),
		"settings": c.href("/settings"),
		"home":     c.href(RootPath),
	}
}

func (c *Controller) href(path string) string {
	if c.basePath == "" {
		return path
	}
	if path == RootPath {
		return c.basePath + "/"
	}
	return c.basePath + path
}

// nestCopy turns dotted copy keys into nested maps for template lookups.
func nestCopy(copy map[string]string) map[string]any {
	root := map[string]any{}
	for key, value := range copy {
		parts := strings.Split(key, ".")
		node := root
		for i, part := range parts {
			if i == len(parts)-1 {
				if _, exists := node[part]; !exists {
					node[part] = value
				}
				break
			}
			child, ok := node[part].(map[string]any)
			if !ok {
				if _, exists := node[part]; exists {
					break
				}
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
	}
	return root
}
