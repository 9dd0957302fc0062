package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-users/pkg/types"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/goliatone/go-admin-shell/pkg/activity"
	"github.com/goliatone/go-admin-shell/pkg/activity/usersink"
	"github.com/goliatone/go-admin-shell/pkg/config"
)

// application bundles the collaborators both transports share.
type application struct {
	cfg        *config.Config
	logger     *slog.Logger
	telemetry  shell.Telemetry
	variants   *shell.VariantRegistry
	service    *shell.Service
	controller *shell.Controller
	events     *shell.BroadcastHook
	sessions   *shell.InMemorySessionStore
}

func newLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// loadVariants returns the built-in variants overlaid with the YAML files
// in dir.
func loadVariants(dir string) ([]shell.Variant, error) {
	builtin, err := shell.BuiltinVariants()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return builtin, nil
	}
	variants, err := shell.OverlayVariants(builtin, os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("load variants from %s: %w", dir, err)
	}
	return variants, nil
}

func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	if cfg == nil {
		return nil, errors.New("adminshell: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	variants, err := loadVariants(cfg.Shell.VariantsDir)
	if err != nil {
		return nil, err
	}
	registry, err := shell.NewVariantRegistry(variants...)
	if err != nil {
		return nil, err
	}
	if err := registry.SetDefault(cfg.Shell.DefaultVariant); err != nil {
		return nil, err
	}

	telemetry := shell.NewSlogTelemetry(logger)
	events := shell.NewBroadcastHook()
	sessions := shell.NewInMemorySessionStore(
		shell.WithBannerTimeout(cfg.Shell.BannerTimeout),
		shell.WithSessionTTL(cfg.Session.TTL()),
		shell.WithNavigatorOptions(shell.WithSidebarBreakpoint(cfg.Shell.SidebarBreakpoint)),
	)

	var hooks activity.Hooks
	if cfg.Activity.Enabled {
		hooks = append(hooks, usersink.Hook{Sink: logSink{logger: logger}})
	}

	service, err := shell.NewService(shell.Options{
		Sessions:       sessions,
		Variants:       registry,
		Telemetry:      telemetry,
		Events:         events,
		ActivityHooks:  hooks,
		ActivityConfig: activity.Config{Enabled: cfg.Activity.Enabled, Channel: cfg.Activity.Channel},
	})
	if err != nil {
		return nil, err
	}
	renderer, err := shell.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("adminshell: templates: %w", err)
	}
	controller := shell.NewController(shell.ControllerOptions{
		Service:  service,
		Renderer: renderer,
		BasePath: cfg.Server.BasePath,
	})
	return &application{
		cfg:        cfg,
		logger:     logger,
		telemetry:  telemetry,
		variants:   registry,
		service:    service,
		controller: controller,
		events:     events,
		sessions:   sessions,
	}, nil
}

// reloadVariants swaps the registry contents after an on-disk change.
func (a *application) reloadVariants() error {
	variants, err := loadVariants(a.cfg.Shell.VariantsDir)
	if err != nil {
		return err
	}
	if err := a.variants.ReplaceAll(variants); err != nil {
		return err
	}
	if err := a.variants.SetDefault(a.cfg.Shell.DefaultVariant); err != nil {
		return err
	}
	a.logger.Info("variants reloaded", "codes", a.variants.Codes())
	return nil
}

// logSink writes go-users activity records to the structured log.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Log(ctx context.Context, record types.ActivityRecord) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "activity",
		slog.String("verb", record.Verb),
		slog.String("object_type", record.ObjectType),
		slog.String("object_id", record.ObjectID),
		slog.String("channel", record.Channel),
		slog.Any("data", record.Data),
		slog.Time("occurred_at", record.OccurredAt),
	)
	return nil
}
