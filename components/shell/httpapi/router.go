package httpapi

import (
	"net/http"
	"strings"
	"time"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions tunes the chi router.
type RouterOptions struct {
	CORSOrigins []string
	// RequestLogging enables the chi access log.
	RequestLogging bool
}

// NewRouter mounts the handlers under h.BasePath.
func NewRouter(h *Handlers, opts RouterOptions) chi.Router {
	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", ColorSchemeHint},
			AllowCredentials: true,
			MaxAge:           int((5 * time.Minute).Seconds()),
		}))
	}

	mount := func(r chi.Router) {
		static := http.FileServer(http.FS(shell.StaticAssets()))
		r.Handle("/_shell/static/*", http.StripPrefix(h.href("/_shell/static"), static))

		r.Get("/_shell/state", h.HandleState)
		r.Get("/_shell/ws", h.HandleWebSocket)
		r.Get("/_shell/events", h.HandleEvents)
		r.Post("/_shell/tabs", h.HandleOpenTab)
		r.Post("/_shell/tabs/{id}/close", func(w http.ResponseWriter, r *http.Request) {
			h.HandleCloseTab(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/_shell/menus/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
			h.HandleToggleMenu(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/_shell/sidebar", h.HandleSidebar)
		r.Post("/_shell/viewport", h.HandleViewport)
		r.Post("/_shell/theme", h.HandleTheme)

		r.Post(shell.LoginPath, h.HandleLogin)
		r.Post("/settings", h.HandleSaveSettings)
		r.Get("/", h.HandlePage)
		r.Get("/*", h.HandlePage)
	}

	if base := strings.TrimRight(h.BasePath, "/"); base != "" {
		r.Route(base, mount)
		return r
	}
	mount(r)
	return r
}
