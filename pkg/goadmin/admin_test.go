package goadmin_test

import (
	"context"
	"errors"
	"testing"

	activitypkg "github.com/goliatone/go-admin-shell/pkg/activity"
	"github.com/goliatone/go-admin-shell/pkg/goadmin"
	shellpkg "github.com/goliatone/go-admin-shell/pkg/shell"
)

type stubMenuBuilder struct {
	items []goadmin.MenuItem
	codes []string
	err   error
}

func (s *stubMenuBuilder) EnsureMenuItem(_ context.Context, code string, item goadmin.MenuItem) error {
	if s.err != nil {
		return s.err
	}
	s.codes = append(s.codes, code)
	s.items = append(s.items, item)
	return nil
}

func newService(t *testing.T) *shellpkg.Service {
	t.Helper()
	service, err := shellpkg.NewService(shellpkg.Options{})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return service
}

func TestAdminBootstrapSeedsMenu(t *testing.T) {
	builder := &stubMenuBuilder{}
	capture := &activitypkg.CaptureHook{}
	admin, err := goadmin.New(goadmin.Config{
		EnableShell:    true,
		Service:        newService(t),
		MenuBuilder:    builder,
		BasePath:       "/admin/",
		ActivityHooks:  activitypkg.Hooks{capture},
		ActivityConfig: activitypkg.Config{Enabled: true},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if len(builder.items) == 0 {
		t.Fatalf("expected menu items to be seeded")
	}
	for _, code := range builder.codes {
		if code != "admin.main" {
			t.Fatalf("expected default menu code, got %s", code)
		}
	}
	first := builder.items[0]
	if first.Parent != "" || first.Position != 0 {
		t.Fatalf("unexpected first item %+v", first)
	}
	for _, item := range builder.items {
		if item.Route != "" && item.Route[:6] != "/admin" {
			t.Fatalf("expected routes under the base path, got %s", item.Route)
		}
	}
	if admin.Shell() == nil {
		t.Fatalf("expected shell service")
	}
	if len(capture.Events) != 1 || capture.Events[0].Verb != "shell.menu.seeded" {
		t.Fatalf("expected seeded activity event, got %+v", capture.Events)
	}
}

func TestAdminMenuItemsKeepSubmenuParents(t *testing.T) {
	admin, err := goadmin.New(goadmin.Config{
		EnableShell: true,
		Service:     newService(t),
		Variant:     "fa",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	items, err := admin.MenuItems()
	if err != nil {
		t.Fatalf("MenuItems returned error: %v", err)
	}
	var parent *goadmin.MenuItem
	var children int
	for idx := range items {
		if items[idx].Route == "" {
			parent = &items[idx]
		}
	}
	if parent == nil {
		t.Fatalf("expected a submenu entry in the fa menu")
	}
	for _, item := range items {
		if item.Parent == parent.ID {
			children++
			if item.Route == "" {
				t.Fatalf("expected child %s to carry a route", item.ID)
			}
		}
	}
	if children == 0 {
		t.Fatalf("expected children under %s", parent.ID)
	}
}

func TestAdminUnknownVariant(t *testing.T) {
	admin, err := goadmin.New(goadmin.Config{EnableShell: true, Service: newService(t), Variant: "xx"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := admin.MenuItems(); err == nil {
		t.Fatalf("expected unknown variant error")
	}
}

func TestAdminBootstrapPropagatesBuilderError(t *testing.T) {
	builder := &stubMenuBuilder{err: errors.New("menu store down")}
	admin, err := goadmin.New(goadmin.Config{EnableShell: true, Service: newService(t), MenuBuilder: builder})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err == nil {
		t.Fatalf("expected builder error")
	}
}

func TestAdminRequiresServiceWhenEnabled(t *testing.T) {
	if _, err := goadmin.New(goadmin.Config{EnableShell: true}); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestAdminDisabledSkipsBootstrap(t *testing.T) {
	builder := &stubMenuBuilder{}
	admin, err := goadmin.New(goadmin.Config{
		EnableShell: false,
		MenuBuilder: builder,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if len(builder.items) != 0 {
		t.Fatalf("expected 0 calls, got %d", len(builder.items))
	}
	if admin.Shell() != nil {
		t.Fatalf("expected nil shell when disabled")
	}
}
