package goadmin

import (
	"context"
	"errors"
	"strings"

	activitypkg "github.com/goliatone/go-admin-shell/pkg/activity"
	shellpkg "github.com/goliatone/go-admin-shell/pkg/shell"
)

// MenuBuilder ensures shell entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures shell link metadata.
type MenuItem struct {
	ID       string
	Parent   string
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires the shell service and feature flags into a host admin.
type Config struct {
	EnableShell    bool
	MenuCode       string
	MenuBuilder    MenuBuilder
	Service        *shellpkg.Service
	Variant        string
	BasePath       string
	ActivityHooks  activitypkg.Hooks
	ActivityConfig activitypkg.Config
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg      Config
	activity *activitypkg.Emitter
}

// New creates an Admin helper that can seed the shell menu.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableShell && cfg.Service == nil {
		return nil, errors.New("goadmin: shell service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	cfg.BasePath = strings.TrimRight(cfg.BasePath, "/")
	return &Admin{cfg: cfg, activity: activitypkg.NewEmitter(cfg.ActivityHooks, cfg.ActivityConfig)}, nil
}

// Shell exposes the configured shell service when enabled.
func (a *Admin) Shell() *shellpkg.Service {
	if !a.cfg.EnableShell {
		return nil
	}
	return a.cfg.Service
}

// MenuItems flattens the variant sidebar into host menu entries. Children
// keep their parent id and positions restart per level.
func (a *Admin) MenuItems() ([]MenuItem, error) {
	if !a.cfg.EnableShell {
		return nil, nil
	}
	variants := a.cfg.Service.Variants()
	variant := variants.Default()
	if a.cfg.Variant != "" {
		found, err := variants.Lookup(a.cfg.Variant)
		if err != nil {
			return nil, err
		}
		variant = found
	}
	return a.flatten(variant.Menu, ""), nil
}

func (a *Admin) flatten(items []shellpkg.MenuItem, parent string) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for idx, item := range items {
		entry := MenuItem{
			ID:       item.ID,
			Parent:   parent,
			Label:    item.Label,
			Icon:     item.Icon,
			Position: idx,
		}
		if !item.IsSubmenu() {
			entry.Route = a.cfg.BasePath + item.Tab().Path
		}
		out = append(out, entry)
		out = append(out, a.flatten(item.Children, item.ID)...)
	}
	return out
}

// Bootstrap seeds menu entries when shell support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableShell || a.cfg.MenuBuilder == nil {
		return nil
	}
	items, err := a.MenuItems()
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			return err
		}
	}
	return a.activity.Emit(ctx, activitypkg.Event{
		Verb:       "shell.menu.seeded",
		ObjectType: "menu",
		ObjectID:   a.cfg.MenuCode,
		Metadata:   map[string]any{"items": len(items), "variant": a.cfg.Variant},
	})
}
