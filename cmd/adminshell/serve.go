package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-admin-shell/components/shell/gorouter"
	"github.com/goliatone/go-admin-shell/components/shell/httpapi"
	"github.com/goliatone/go-admin-shell/pkg/config"
)

type serveCmd struct {
	Addr      string `help:"Listen address (overrides server.addr)."`
	Transport string `help:"HTTP transport: chi or fiber (overrides server.transport)."`
	BasePath  string `name:"base-path" help:"Mount prefix (overrides server.base_path)."`
	Watch     bool   `default:"true" negatable:"" help:"Reload variants when shell.variants_dir changes."`
}

func (cmd *serveCmd) apply(cfg *config.Config) {
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	if cmd.Transport != "" {
		cfg.Server.Transport = cmd.Transport
	}
	if cmd.BasePath != "" {
		cfg.Server.BasePath = cmd.BasePath
	}
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	cmd.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("adminshell: invalid config: %w", err)
	}
	logger := newLogger(cfg.Log, os.Stderr)
	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return app.sessions.RunSweeper(egctx, cfg.Session.SweepInterval)
	})

	if cmd.Watch && cfg.Shell.VariantsDir != "" {
		eg.Go(func() error {
			return app.watchVariants(egctx)
		})
	}

	logger.Info("starting admin shell",
		"addr", cfg.Server.Addr,
		"transport", cfg.Server.Transport,
		"base_path", cfg.Server.BasePath,
		"variants", app.variants.Codes(),
	)
	switch cfg.Server.Transport {
	case config.TransportFiber:
		err = app.serveFiber(egctx, eg)
	default:
		err = app.serveChi(egctx, eg)
	}
	if err != nil {
		stop()
		return errors.Join(err, eg.Wait())
	}
	return eg.Wait()
}

func (a *application) serveChi(ctx context.Context, eg *errgroup.Group) error {
	cfg := a.cfg
	store := httpapi.NewCookieStore([]byte(cfg.Session.Secret), cfg.Session.MaxAge, cfg.Session.Secure)
	handlers, err := httpapi.NewHandlers(httpapi.Dependencies{
		Service:    a.service,
		Controller: a.controller,
		Sessions:   httpapi.NewSessionManager(store, cfg.Session.Cookie, a.service),
		Events:     a.events,
		Telemetry:  a.telemetry,
		Logger:     a.logger,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewRouter(handlers, httpapi.RouterOptions{
			CORSOrigins:    cfg.Server.CORSOrigins,
			RequestLogging: cfg.Server.RequestLogging,
		}),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Debug("shutting down admin shell")
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}

func (a *application) serveFiber(ctx context.Context, eg *errgroup.Group) error {
	cfg := a.cfg
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:        server.Router(),
		Service:       a.service,
		Controller:    a.controller,
		Broadcast:     a.events,
		Telemetry:     a.telemetry,
		HashKey:       []byte(cfg.Session.Secret),
		SessionCookie: cfg.Session.Cookie,
		SessionMaxAge: cfg.Session.MaxAge,
		Secure:        cfg.Session.Secure,
	}); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	eg.Go(func() error {
		if err := server.Serve(cfg.Server.Addr); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Debug("shutting down admin shell")
		return server.Shutdown(shutdownCtx)
	})
	return nil
}

// watchVariants reloads the registry when a YAML file in the variants
// directory changes. Events are debounced.
func (a *application) watchVariants(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(a.cfg.Shell.VariantsDir); err != nil {
		a.logger.Error("failed to watch variants directory", "dir", a.cfg.Shell.VariantsDir, "error", err)
		return nil
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isVariantChange(event) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				if err := a.reloadVariants(); err != nil {
					a.logger.Error("variant reload failed", "file", event.Name, "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watcher error", "error", err)
		}
	}
}

func isVariantChange(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Ext(event.Name) == ".yaml"
}
