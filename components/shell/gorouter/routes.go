package gorouter

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	router "github.com/goliatone/go-router"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/goliatone/go-admin-shell/components/shell/commands"
)

// VariantCookie is read when a variant was chosen on another transport.
const VariantCookie = "shell_variant"

// Config wires go-router with the shell service and controller.
type Config[T any] struct {
	Router        router.Router[T]
	Service       *shell.Service
	Controller    *shell.Controller
	Broadcast     *shell.BroadcastHook
	Telemetry     shell.Telemetry
	HashKey       []byte
	BlockKey      []byte
	SessionCookie string
	SessionMaxAge time.Duration
	Secure        bool
	Routes        RouteConfig
}

// RouteConfig customizes the shell endpoint paths relative to the base path.
type RouteConfig struct {
	State      string
	Tabs       string
	CloseTab   string
	ToggleMenu string
	Sidebar    string
	Viewport   string
	Theme      string
	WebSocket  string
	Static     string
	Login      string
	Settings   string
}

// Register mounts the shell (pages, mutations, WebSocket, assets) on a
// go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Service == nil {
		return errors.New("gorouter: service is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	if len(cfg.HashKey) == 0 {
		return errors.New("gorouter: session hash key is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.Controller.BasePath()
	h := newShellRoutes(cfg, base)

	cfg.Router.Static(base+routes.Static, ".", router.Static{
		FS:     shell.StaticAssets(),
		Root:   ".",
		MaxAge: 86400,
	})

	var r router.Router[T] = cfg.Router
	if base != "" {
		r = cfg.Router.Group(base)
	}

	r.Get(routes.State, router.WrapHandler(h.state))
	r.Post(routes.Tabs, router.WrapHandler(h.openTab))
	r.Post(routes.CloseTab, router.WrapHandler(h.closeTab))
	r.Post(routes.ToggleMenu, router.WrapHandler(h.toggleMenu))
	r.Post(routes.Sidebar, router.WrapHandler(h.sidebar))
	r.Post(routes.Viewport, router.WrapHandler(h.viewport))
	r.Post(routes.Theme, router.WrapHandler(h.theme))
	r.Post(routes.Login, router.WrapHandler(h.login))
	r.Post(routes.Settings, router.WrapHandler(h.saveSettings))

	if cfg.Broadcast != nil {
		registerWebSocket(r, cfg.Broadcast, h.codec, routes.WebSocket)
	}

	for _, page := range cfg.Service.Pages().Pages() {
		r.Get(page.Path, router.WrapHandler(h.page(page.Path)))
	}
	r.Get("/*", router.WrapHandler(h.page("")))
	return nil
}

type shellRoutes struct {
	service     *shell.Service
	controller  *shell.Controller
	telemetry   shell.Telemetry
	codec       *sessionCodec
	base        string
	secure      bool
	themeCookie string

	openTabCmd       *commands.OpenTabCommand
	closeTabCmd      *commands.CloseTabCommand
	toggleMenuCmd    *commands.ToggleMenuCommand
	syncRouteCmd     *commands.SyncRouteCommand
	setSidebarCmd    *commands.SetSidebarCommand
	toggleSidebarCmd *commands.ToggleSidebarCommand
	viewportCmd      *commands.ApplyViewportCommand
	setThemeCmd      *commands.SetThemeCommand
	toggleThemeCmd   *commands.ToggleThemeCommand
	settingsCmd      *commands.SaveSettingsCommand
	loginCmd         *commands.SubmitLoginCommand
}

func newShellRoutes[T any](cfg Config[T], base string) *shellRoutes {
	svc := cfg.Service
	var telemetry commands.Telemetry
	if cfg.Telemetry != nil {
		telemetry = cfg.Telemetry
	}
	return &shellRoutes{
		service:     svc,
		controller:  cfg.Controller,
		telemetry:   cfg.Telemetry,
		codec:       newSessionCodec(cfg.SessionCookie, cfg.HashKey, cfg.BlockKey, cfg.SessionMaxAge, cfg.Secure),
		base:        base,
		secure:      cfg.Secure,
		themeCookie: DefaultThemeCookie,

		openTabCmd:       commands.NewOpenTabCommand(svc, telemetry),
		closeTabCmd:      commands.NewCloseTabCommand(svc, telemetry),
		toggleMenuCmd:    commands.NewToggleMenuCommand(svc, telemetry),
		syncRouteCmd:     commands.NewSyncRouteCommand(svc, telemetry),
		setSidebarCmd:    commands.NewSetSidebarCommand(svc, telemetry),
		toggleSidebarCmd: commands.NewToggleSidebarCommand(svc, telemetry),
		viewportCmd:      commands.NewApplyViewportCommand(svc, telemetry),
		setThemeCmd:      commands.NewSetThemeCommand(svc, telemetry),
		toggleThemeCmd:   commands.NewToggleThemeCommand(svc, telemetry),
		settingsCmd:      commands.NewSaveSettingsCommand(svc, telemetry),
		loginCmd:         commands.NewSubmitLoginCommand(svc, telemetry),
	}
}

func (h *shellRoutes) page(fixed string) func(router.Context) error {
	return func(ctx router.Context) error {
		path, ok := pagePath(fixed, ctx.Param("*"))
		if !ok {
			return respondStatus(ctx, http.StatusNotFound, errors.New(path+": not found"))
		}
		req := shell.PageRequest{Variant: h.variant(ctx), Path: path, Theme: h.themeStore(ctx)}
		if path != shell.LoginPath {
			session, err := h.ensure(ctx)
			if err != nil {
				return respondError(ctx, err)
			}
			req.SessionID = session.ID
			if err := h.syncRouteCmd.Execute(ctx.Context(), commands.SyncRouteInput{SessionID: session.ID, Path: path}); err != nil {
				return respondError(ctx, err)
			}
		}
		return h.render(ctx, req, http.StatusOK)
	}
}

// pagePath resolves the rendered path. Browser asset fetches are not pages.
func pagePath(fixed, wildcard string) (string, bool) {
	path := fixed
	if path == "" {
		path = "/" + wildcard
	}
	path = shell.CleanPath(path)
	return path, !shell.IsAssetPath(path)
}

func (h *shellRoutes) state(ctx router.Context) error {
	session, err := h.ensure(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	state, err := h.service.State(ctx.Context(), session.ID)
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, state)
}

func (h *shellRoutes) openTab(ctx router.Context) error {
	form, err := parseBody(ctx.Header("Content-Type"), ctx.Body())
	if err != nil {
		return respondStatus(ctx, http.StatusBadRequest, err)
	}
	session, err := h.ensure(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	input := commands.OpenTabInput{SessionID: session.ID, Variant: h.variant(ctx), Result: new(shell.Navigation)}
	if menuID := form.Get("menu"); menuID != "" {
		input.MenuID = menuID
	} else if path := form.Get("path"); path != "" {
		input.Tab = shell.DeriveTab(path)
		if title := strings.TrimSpace(form.Get("title")); title != "" {
			input.Tab.Title = title
		}
		if icon := form.Get("icon"); icon != "" {
			input.Tab.Icon = icon
		}
	} else {
		return respondStatus(ctx, http.StatusBadRequest, errors.New("menu or path is required"))
	}
	if err := h.openTabCmd.Execute(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return h.respond(ctx, input.Result.Path, map[string]any{"path": input.Result.Path})
}

func (h *shellRoutes) closeTab(ctx router.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return respondStatus(ctx, http.StatusBadRequest, errors.New("tab id is required"))
	}
	session, err := h.ensure(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	var result commands.CloseTabResult
	if err := h.closeTabCmd.Execute(ctx.Context(), commands.CloseTabInput{SessionID: session.ID, TabID: id, Result: &result}); err != nil {
		return respondError(ctx, err)
	}
	if result.Navigation != nil {
		return h.respond(ctx, result.Navigation.Path, map[string]any{"path": result.Navigation.Path})
	}
	return h.respond(ctx, h.back(ctx), map[string]any{"path": nil})
}

func (h *shellRoutes) toggleMenu(ctx router.Context) error {
	id := ctx.Param("id")
	session, err := h.ensure(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	var open bool
	if err := h.toggleMenuCmd.Execute(ctx.Context(), commands.ToggleMenuInput{SessionID: session.ID, MenuID: id, Open: &open}); err != nil {
		return respondError(ctx, err)
	}
	return h.respond(ctx, h.back(ctx), map[string]any{"menu": id, "open": open})
}

func (h *shellRoutes) sidebar(ctx router.Context) error {
	form, err := parseBody(ctx.Header("Content-Type"), ctx.Body())
	if err != nil {
		return respondStatus(ctx, http.StatusBadRequest, err)
	}
	session, err := h.ensure(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	var open bool
	if raw := form.Get("open"); raw != "" {
		open = formBool(raw)
		err = h.setSidebarCmd.Execute(ctx.Context(), commands.SetSidebarInput{SessionID: session.ID, Open: open})
	} else {
		err = h.toggleSidebarCmd.Execute(ctx.Context(), commands.ToggleSidebarInput{SessionID: session.ID, Open: &open})
	}
	if err != nil {
		return respondError(ctx, err)
	}
	return h.respond(ctx, h.back(ctx), map[string]any{"sidebar_open": open})
}

func (h *shellRoutes) viewport(ctx router.Context) error {
	form, err := parseBody(ctx.Header("Content-Type"), ctx.Body())
	if err != nil {
		return respondStatus(ctx, http.StatusBadRequest, err)
	}
	width, err := strconv.Atoi(form.Get("width"))
	if err != nil {
		return respondStatus(ctx, http.StatusBadRequest, errors.New("width must be an integer"))
	}
	session, err := h.ensure(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	var open bool
	if err := h.viewportCmd.Execute(ctx.Context(), commands.ApplyViewportInput{SessionID: session.ID, Width: width, Open: &open}); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"sidebar_open": open})
}

// theme does not mount a session: the response already carries the theme
// cookie and only one Set-Cookie header can be written here.
func (h *shellRoutes) theme(ctx router.Context) error {
	form, err := parseBody(ctx.Header("Content-Type"), ctx.Body())
	if err != nil {
		return respondStatus(ctx, http.StatusBadRequest, err)
	}
	sessionID := h.codec.decode(ctx.Header("Cookie"))
	store := h.themeStore(ctx)
	if raw := form.Get("theme"); raw != "" {
		err = h.setThemeCmd.Execute(ctx.Context(), commands.SetThemeInput{SessionID: sessionID, Store: store, Theme: shell.Theme(raw)})
	} else {
		err = h.toggleThemeCmd.Execute(ctx.Context(), commands.ToggleThemeInput{SessionID: sessionID, Store: store})
	}
	if err != nil {
		return respondError(ctx, err)
	}
	return h.respond(ctx, h.back(ctx), map[string]any{
		"theme":     string(store.Theme()),
		"effective": string(store.Effective(ctx.Context())),
	})
}

func (h *shellRoutes) login(ctx router.Context) error {
	form, err := parseBody(ctx.Header("Content-Type"), ctx.Body())
	if err != nil {
		return respondStatus(ctx, http.StatusBadRequest, err)
	}
	values := shell.LoginForm{
		Email:        form.Get("email"),
		Password:     form.Get("password"),
		RememberMe:   formBool(form.Get("remember_me")),
		ShowPassword: formBool(form.Get("show_password")),
	}
	variant := h.variant(ctx)
	req := shell.PageRequest{Variant: variant, Path: shell.LoginPath, Theme: h.themeStore(ctx)}
	if ctx.Query("toggle") != "" {
		req.Form = &shell.FormState{Values: values}
		return h.render(ctx, req, http.StatusOK)
	}
	err = h.loginCmd.Execute(ctx.Context(), commands.SubmitLoginInput{Variant: variant, Form: values})
	var verr *shell.ValidationError
	if errors.As(err, &verr) && !wantsJSON(ctx) {
		req.Form = &shell.FormState{Values: values, Errors: verr.Fields}
		return h.render(ctx, req, http.StatusUnprocessableEntity)
	}
	if err != nil {
		return respondError(ctx, err)
	}
	return h.respond(ctx, shell.RootPath, map[string]any{"status": "ok"})
}

func (h *shellRoutes) saveSettings(ctx router.Context) error {
	form, err := parseBody(ctx.Header("Content-Type"), ctx.Body())
	if err != nil {
		return respondStatus(ctx, http.StatusBadRequest, err)
	}
	session, err := h.ensure(ctx)
	if err != nil {
		return respondError(ctx, err)
	}
	values := shell.SettingsForm{
		SiteName:    form.Get("site_name"),
		SiteURL:     form.Get("site_url"),
		Maintenance: formBool(form.Get("maintenance")),
		SMTPHost:    form.Get("smtp_host"),
		SMTPPort:    form.Get("smtp_port"),
		SMTPSecure:  formBool(form.Get("smtp_secure")),
	}
	variant := h.variant(ctx)
	err = h.settingsCmd.Execute(ctx.Context(), commands.SaveSettingsInput{SessionID: session.ID, Variant: variant, Form: values})
	var verr *shell.ValidationError
	if errors.As(err, &verr) && !wantsJSON(ctx) {
		return h.render(ctx, shell.PageRequest{
			SessionID: session.ID,
			Variant:   variant,
			Path:      "/settings",
			Theme:     h.themeStore(ctx),
			Form:      &shell.FormState{Values: values, Errors: verr.Fields},
		}, http.StatusUnprocessableEntity)
	}
	if err != nil {
		return respondError(ctx, err)
	}
	return h.respond(ctx, "/settings", map[string]any{"saved": true})
}

func registerWebSocket[T any](r router.Router[T], hook *shell.BroadcastHook, codec *sessionCodec, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		sessionID := codec.decode(ws.Header("Cookie"))
		if sessionID == "" {
			return ws.Close()
		}
		events, cancel := hook.Subscribe(sessionID)
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func (h *shellRoutes) ensure(ctx router.Context) (*shell.Session, error) {
	id := h.codec.decode(ctx.Header("Cookie"))
	session, _, err := h.service.EnsureSession(ctx.Context(), id)
	if err != nil && id != "" {
		session, _, err = h.service.EnsureSession(ctx.Context(), "")
	}
	if err != nil {
		return nil, err
	}
	if session.ID != id {
		cookie, err := h.codec.cookie(session.ID)
		if err != nil {
			return nil, err
		}
		ctx.SetHeader("Set-Cookie", cookie.String())
	}
	return session, nil
}

func (h *shellRoutes) variant(ctx router.Context) shell.Variant {
	variants := h.service.Variants()
	if code := ctx.Query("variant"); code != "" {
		if variant, err := variants.Lookup(code); err == nil {
			return variant
		}
	}
	if code := readCookie(ctx.Header("Cookie"), VariantCookie); code != "" {
		if variant, err := variants.Lookup(code); err == nil {
			return variant
		}
	}
	return variants.Match(ctx.Header("Accept-Language"))
}

func (h *shellRoutes) themeStore(ctx router.Context) *shell.ThemeStore {
	storage := headerThemeStorage{
		name:   h.themeCookie,
		header: ctx.Header("Cookie"),
		secure: h.secure,
		set:    func(c *http.Cookie) { ctx.SetHeader("Set-Cookie", c.String()) },
	}
	scheme := shell.StaticScheme(shell.ParseColorSchemeHint(ctx.Header("Sec-CH-Prefers-Color-Scheme")))
	return shell.NewThemeStore(ctx.Context(), storage, scheme, shell.WithThemeTelemetry(h.telemetry))
}

// render writes HTML with the adapter's default status; a rejected form is
// flagged through X-Shell-Status instead.
func (h *shellRoutes) render(ctx router.Context, req shell.PageRequest, status int) error {
	var buf bytes.Buffer
	if _, err := h.controller.RenderPage(ctx.Context(), req, &buf); err != nil {
		return respondError(ctx, err)
	}
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	ctx.SetHeader("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	if status != http.StatusOK {
		ctx.SetHeader("X-Shell-Status", strconv.Itoa(status))
	}
	return ctx.Send(buf.Bytes())
}

// respond answers JSON clients directly and redirects browsers with 303.
func (h *shellRoutes) respond(ctx router.Context, path string, payload map[string]any) error {
	if wantsJSON(ctx) {
		return ctx.JSON(http.StatusOK, payload)
	}
	ctx.SetHeader("Location", joinBase(h.base, path))
	return ctx.JSON(http.StatusSeeOther, payload)
}

func (h *shellRoutes) back(ctx router.Context) string {
	return refererPath(ctx.Header("Referer"), h.base)
}

func wantsJSON(ctx router.Context) bool {
	return strings.Contains(ctx.Header("Accept"), "application/json")
}

// refererPath returns the shell path of a referer, or the root.
func refererPath(referer, base string) string {
	ref, err := url.Parse(referer)
	if err != nil || ref.Path == "" {
		return shell.RootPath
	}
	path := ref.Path
	if base = strings.TrimRight(base, "/"); base != "" {
		path = strings.TrimPrefix(path, base)
	}
	return shell.CleanPath(path)
}

func joinBase(base, path string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return path
	}
	return base + path
}

func statusFor(err error) int {
	var verr *shell.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shell.ErrSessionNotFound),
		errors.Is(err, shell.ErrUnknownMenuItem),
		errors.Is(err, shell.ErrUnknownVariant),
		errors.Is(err, shell.ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, shell.ErrInvalidTheme):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx router.Context, err error) error {
	var verr *shell.ValidationError
	if errors.As(err, &verr) {
		return ctx.JSON(http.StatusUnprocessableEntity, map[string]any{"form": verr.Form, "errors": verr.Fields})
	}
	return respondStatus(ctx, statusFor(err), err)
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.State == "" {
		routes.State = "/_shell/state"
	}
	if routes.Tabs == "" {
		routes.Tabs = "/_shell/tabs"
	}
	if routes.CloseTab == "" {
		routes.CloseTab = "/_shell/tabs/:id/close"
	}
	if routes.ToggleMenu == "" {
		routes.ToggleMenu = "/_shell/menus/:id/toggle"
	}
	if routes.Sidebar == "" {
		routes.Sidebar = "/_shell/sidebar"
	}
	if routes.Viewport == "" {
		routes.Viewport = "/_shell/viewport"
	}
	if routes.Theme == "" {
		routes.Theme = "/_shell/theme"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/_shell/ws"
	}
	if routes.Static == "" {
		routes.Static = "/_shell/static"
	}
	if routes.Login == "" {
		routes.Login = shell.LoginPath
	}
	if routes.Settings == "" {
		routes.Settings = "/settings"
	}
	return routes
}
