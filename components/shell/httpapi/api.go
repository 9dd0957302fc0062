package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/goliatone/go-admin-shell/components/shell/commands"
	"github.com/goliatone/go-admin-shell/components/shell/queries"
	gocommand "github.com/goliatone/go-command"
)

type pageRenderer interface {
	RenderPage(ctx context.Context, req shell.PageRequest, out io.Writer) (shell.PageView, error)
}

// Handlers exposes the shell over HTTP. Mutations are backed by shared
// commands and answered with a 303 redirect, or with JSON when the client
// asks for it.
type Handlers struct {
	Pages     pageRenderer
	Variants  *shell.VariantRegistry
	Sessions  *SessionManager
	Events    *shell.BroadcastHook
	Telemetry shell.Telemetry
	Logger    *slog.Logger
	BasePath  string
	Secure    bool

	OpenTab       gocommand.Commander[commands.OpenTabInput]
	CloseTab      gocommand.Commander[commands.CloseTabInput]
	ToggleMenu    gocommand.Commander[commands.ToggleMenuInput]
	SyncRoute     gocommand.Commander[commands.SyncRouteInput]
	SetSidebar    gocommand.Commander[commands.SetSidebarInput]
	ToggleSidebar gocommand.Commander[commands.ToggleSidebarInput]
	ApplyViewport gocommand.Commander[commands.ApplyViewportInput]
	SetTheme      gocommand.Commander[commands.SetThemeInput]
	ToggleTheme   gocommand.Commander[commands.ToggleThemeInput]
	SaveSettings  gocommand.Commander[commands.SaveSettingsInput]
	SubmitLogin   gocommand.Commander[commands.SubmitLoginInput]
	State         gocommand.Querier[queries.NavigationStateInput, shell.NavigationState]
}

// HandlePage renders any shell route. Unknown routes render the dashboard.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	path := h.routePath(r)
	if shell.IsAssetPath(path) {
		http.NotFound(w, r)
		return
	}
	variant := h.variant(w, r)
	req := shell.PageRequest{Variant: variant, Path: path, Theme: h.themeStore(w, r)}
	if shell.CleanPath(path) != shell.LoginPath {
		session, err := h.Sessions.Ensure(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		req.SessionID = session.ID
		if err := h.SyncRoute.Execute(r.Context(), commands.SyncRouteInput{SessionID: session.ID, Path: path}); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.render(w, r, req, http.StatusOK)
}

// HandleLogin validates the login form. The password visibility toggle
// re-renders the form without validating it.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := shell.LoginForm{
		Email:        r.PostForm.Get("email"),
		Password:     r.PostForm.Get("password"),
		RememberMe:   formBool(r.PostForm.Get("remember_me")),
		ShowPassword: formBool(r.PostForm.Get("show_password")),
	}
	variant := h.variant(w, r)
	req := shell.PageRequest{Variant: variant, Path: shell.LoginPath, Theme: h.themeStore(w, r)}
	if r.URL.Query().Get("toggle") != "" {
		req.Form = &shell.FormState{Values: form}
		h.render(w, r, req, http.StatusOK)
		return
	}
	err := h.SubmitLogin.Execute(r.Context(), commands.SubmitLoginInput{Variant: variant, Form: form})
	var verr *shell.ValidationError
	if errors.As(err, &verr) {
		req.Form = &shell.FormState{Values: form, Errors: verr.Fields}
		h.render(w, r, req, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.redirect(w, r, shell.RootPath)
}

// HandleSaveSettings stores the settings form and shows the saved banner.
func (h *Handlers) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	form := shell.SettingsForm{
		SiteName:    r.PostForm.Get("site_name"),
		SiteURL:     r.PostForm.Get("site_url"),
		Maintenance: formBool(r.PostForm.Get("maintenance")),
		SMTPHost:    r.PostForm.Get("smtp_host"),
		SMTPPort:    r.PostForm.Get("smtp_port"),
		SMTPSecure:  formBool(r.PostForm.Get("smtp_secure")),
	}
	variant := h.variant(w, r)
	err = h.SaveSettings.Execute(r.Context(), commands.SaveSettingsInput{SessionID: session.ID, Variant: variant, Form: form})
	var verr *shell.ValidationError
	if errors.As(err, &verr) {
		if wantsJSON(r) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"form": verr.Form, "errors": verr.Fields})
			return
		}
		h.render(w, r, shell.PageRequest{
			SessionID: session.ID,
			Variant:   variant,
			Path:      "/settings",
			Theme:     h.themeStore(w, r),
			Form:      &shell.FormState{Values: form, Errors: verr.Fields},
		}, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, "/settings", map[string]any{"saved": true})
}

// HandleOpenTab opens a menu item (form field menu) or a route (form field path).
func (h *Handlers) HandleOpenTab(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	input := commands.OpenTabInput{SessionID: session.ID, Variant: h.variant(w, r), Result: new(shell.Navigation)}
	if menuID := r.PostForm.Get("menu"); menuID != "" {
		input.MenuID = menuID
	} else {
		path := r.PostForm.Get("path")
		if path == "" {
			http.Error(w, "menu or path is required", http.StatusBadRequest)
			return
		}
		input.Tab = shell.DeriveTab(path)
		if title := strings.TrimSpace(r.PostForm.Get("title")); title != "" {
			input.Tab.Title = title
		}
		if icon := r.PostForm.Get("icon"); icon != "" {
			input.Tab.Icon = icon
		}
	}
	if err := h.OpenTab.Execute(r.Context(), input); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, input.Result.Path, map[string]any{"path": input.Result.Path})
}

// HandleCloseTab closes a tab and navigates when the active tab went away.
func (h *Handlers) HandleCloseTab(w http.ResponseWriter, r *http.Request, tabID string) {
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var result commands.CloseTabResult
	if err := h.CloseTab.Execute(r.Context(), commands.CloseTabInput{SessionID: session.ID, TabID: tabID, Result: &result}); err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.Navigation != nil {
		h.respond(w, r, result.Navigation.Path, map[string]any{"path": result.Navigation.Path})
		return
	}
	h.respond(w, r, h.back(r), map[string]any{"path": nil})
}

// HandleToggleMenu expands or collapses a submenu.
func (h *Handlers) HandleToggleMenu(w http.ResponseWriter, r *http.Request, menuID string) {
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var open bool
	if err := h.ToggleMenu.Execute(r.Context(), commands.ToggleMenuInput{SessionID: session.ID, MenuID: menuID, Open: &open}); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, h.back(r), map[string]any{"menu": menuID, "open": open})
}

// HandleSidebar sets the sidebar when form field open is present and toggles
// it otherwise.
func (h *Handlers) HandleSidebar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var open bool
	if raw := r.PostForm.Get("open"); raw != "" {
		open = formBool(raw)
		err = h.SetSidebar.Execute(r.Context(), commands.SetSidebarInput{SessionID: session.ID, Open: open})
	} else {
		err = h.ToggleSidebar.Execute(r.Context(), commands.ToggleSidebarInput{SessionID: session.ID, Open: &open})
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, h.back(r), map[string]any{"sidebar_open": open})
}

// HandleViewport applies a reported viewport width. It always answers JSON.
func (h *Handlers) HandleViewport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	width, err := strconv.Atoi(r.PostForm.Get("width"))
	if err != nil {
		http.Error(w, "width must be an integer", http.StatusBadRequest)
		return
	}
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var open bool
	if err := h.ApplyViewport.Execute(r.Context(), commands.ApplyViewportInput{SessionID: session.ID, Width: width, Open: &open}); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sidebar_open": open})
}

// HandleTheme stores form field theme, or toggles when it is empty.
func (h *Handlers) HandleTheme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	store := h.themeStore(w, r)
	if raw := r.PostForm.Get("theme"); raw != "" {
		err = h.SetTheme.Execute(r.Context(), commands.SetThemeInput{SessionID: session.ID, Store: store, Theme: shell.Theme(raw)})
	} else {
		err = h.ToggleTheme.Execute(r.Context(), commands.ToggleThemeInput{SessionID: session.ID, Store: store})
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, h.back(r), map[string]any{
		"theme":     string(store.Theme()),
		"effective": string(store.Effective(r.Context())),
	})
}

// HandleState returns the navigation state of the session as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	state, err := h.State.Query(r.Context(), queries.NavigationStateInput{SessionID: session.ID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleWebSocket streams session events to other windows of the shell.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		http.Error(w, "events are disabled", http.StatusNotFound)
		return
	}
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Events.ServeWebSocket(w, r, session.ID)
}

// HandleEvents is the Server-Sent Events fallback of HandleWebSocket.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		http.Error(w, "events are disabled", http.StatusNotFound)
		return
	}
	session, err := h.Sessions.Ensure(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Events.ServeSSE(w, r, session.ID)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, req shell.PageRequest, status int) {
	var buf bytes.Buffer
	if _, err := h.Pages.RenderPage(r.Context(), req, &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Accept-CH", ColorSchemeHint)
	w.Header().Add("Vary", ColorSchemeHint)
	w.Header().Add("Vary", "Accept-Language")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// variant resolves ?variant= first, then the remembered cookie, then
// Accept-Language.
func (h *Handlers) variant(w http.ResponseWriter, r *http.Request) shell.Variant {
	if code := r.URL.Query().Get("variant"); code != "" {
		if variant, err := h.Variants.Lookup(code); err == nil {
			http.SetCookie(w, &http.Cookie{
				Name:     VariantCookie,
				Value:    variant.Code,
				Path:     "/",
				Secure:   h.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			return variant
		}
	}
	if cookie, err := r.Cookie(VariantCookie); err == nil {
		if variant, err := h.Variants.Lookup(cookie.Value); err == nil {
			return variant
		}
	}
	return h.Variants.Match(r.Header.Get("Accept-Language"))
}

func (h *Handlers) themeStore(w http.ResponseWriter, r *http.Request) *shell.ThemeStore {
	return shell.NewThemeStore(
		r.Context(),
		cookieThemeStorage{r: r, w: w, name: ThemeCookie, secure: h.Secure},
		shell.StaticScheme(shell.ParseColorSchemeHint(r.Header.Get(ColorSchemeHint))),
		shell.WithThemeTelemetry(h.Telemetry),
	)
}

func (h *Handlers) routePath(r *http.Request) string {
	path := r.URL.Path
	if base := strings.TrimRight(h.BasePath, "/"); base != "" {
		path = strings.TrimPrefix(path, base)
	}
	return shell.CleanPath(path)
}

func (h *Handlers) href(path string) string {
	base := strings.TrimRight(h.BasePath, "/")
	if base == "" {
		return path
	}
	return base + path
}

// back returns the same-origin referer path, or the shell root.
func (h *Handlers) back(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return shell.RootPath
	}
	path := ref.Path
	if base := strings.TrimRight(h.BasePath, "/"); base != "" {
		path = strings.TrimPrefix(path, base)
	}
	return shell.CleanPath(path)
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, path string, payload map[string]any) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, payload)
		return
	}
	h.redirect(w, r, path)
}

func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.href(path), http.StatusSeeOther)
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.ErrorContext(r.Context(), "shell request failed", "path", r.URL.Path, "error", err)
	}
	var verr *shell.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, map[string]any{"form": verr.Form, "errors": verr.Fields})
		return
	}
	http.Error(w, err.Error(), status)
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

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
