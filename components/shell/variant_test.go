package shell

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestBuiltinVariants(t *testing.T) {
	variants, err := BuiltinVariants()
	if err != nil {
		t.Fatalf("builtin variants: %v", err)
	}
	codes := make([]string, 0, len(variants))
	for _, v := range variants {
		codes = append(codes, v.Code)
	}
	if strings.Join(codes, ",") != "en,fa,fa-lite" {
		t.Fatalf("unexpected variants %v", codes)
	}
}

func TestLiteVariantInheritsParent(t *testing.T) {
	lite := mustVariant(t, "fa-lite")
	if lite.Direction != DirectionRTL || lite.Locale != "fa-IR" {
		t.Fatalf("expected inherited locale/direction, got %s %s", lite.Locale, lite.Direction)
	}
	if lite.Text("login.title") != "سامانه بانک ملت" {
		t.Fatalf("expected inherited copy")
	}
	if lite.RouteEnabled("/calendar") {
		t.Fatalf("lite variant must not wire /calendar")
	}
	if !lite.RouteEnabled("/users/") {
		t.Fatalf("lite variant must wire /users")
	}
	if _, ok := lite.FindMenuItem("channels"); ok {
		t.Fatalf("lite variant has no channels submenu")
	}
}

func TestPersianMenuHasChannelsSubmenu(t *testing.T) {
	fa := mustVariant(t, "fa")
	channels, ok := fa.FindMenuItem("channels")
	if !ok || !channels.IsSubmenu() || len(channels.Children) != 4 {
		t.Fatalf("unexpected channels menu %+v", channels)
	}
	atm, ok := fa.FindMenuItem("atm")
	if !ok || atm.Tab().Path != "/channels/atm" {
		t.Fatalf("unexpected atm item %+v", atm)
	}
	if item, ok := fa.MenuItemForPath("/support"); !ok || item.ID != "support" {
		t.Fatalf("expected support item for path, got %+v", item)
	}
}

func TestDecodeVariantRejectsUnknownFields(t *testing.T) {
	_, err := DecodeVariant([]byte("code: x\ncolour: red\n"))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadVariantsValidation(t *testing.T) {
	fsys := fstest.MapFS{
		"v/bad.yaml": {Data: []byte("code: bad\nlocale: en\ndirection: up\nmenu:\n  - {id: a, label: A}\n")},
	}
	_, err := LoadVariants(fsys, "v")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "direction") || !strings.Contains(err.Error(), "leaf item requires a path") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadVariantsDetectsExtendsCycle(t *testing.T) {
	fsys := fstest.MapFS{
		"v/a.yaml": {Data: []byte("code: a\nextends: b\n")},
		"v/b.yaml": {Data: []byte("code: b\nextends: a\n")},
	}
	if _, err := LoadVariants(fsys, "v"); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadVariantsUnknownParent(t *testing.T) {
	fsys := fstest.MapFS{
		"v/a.yaml": {Data: []byte("code: a\nextends: ghost\n")},
	}
	if _, err := LoadVariants(fsys, "v"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestVariantRegistryMatch(t *testing.T) {
	reg, err := DefaultVariantRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cases := map[string]string{
		"":                        "en",
		"fa-IR,fa;q=0.9,en;q=0.8": "fa",
		"fa":                      "fa",
		"de-DE,de;q=0.9":          "en",
		"en-GB":                   "en",
		"not a header;;":          "en",
	}
	for header, want := range cases {
		if got := reg.Match(header).Code; got != want {
			t.Errorf("Match(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestVariantRegistryDefaultAndReplace(t *testing.T) {
	reg, err := DefaultVariantRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := reg.SetDefault("fa-lite"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if reg.Match("de").Code != "fa-lite" {
		t.Fatalf("expected fa-lite fallback")
	}
	if err := reg.SetDefault("zz"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
	en, _ := reg.Lookup("en")
	if err := reg.ReplaceAll([]Variant{en}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if reg.Default().Code != "en" {
		t.Fatalf("expected default reset to en, got %q", reg.Default().Code)
	}
	if _, err := reg.Lookup("fa"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected fa removed")
	}
	if got := reg.Codes(); len(got) != 1 {
		t.Fatalf("unexpected codes %v", got)
	}
}

func TestOverlayVariantsExtendsAndReplacesBuiltins(t *testing.T) {
	base, err := BuiltinVariants()
	if err != nil {
		t.Fatalf("builtin variants: %v", err)
	}
	fsys := fstest.MapFS{
		"v/en.yaml": {Data: []byte("code: en\nextends: fa\nbrand: Overridden\n")},
		"v/de.yaml": {Data: []byte("code: de\nlocale: de-DE\nmenu:\n  - {id: home, label: Start, path: /}\n")},
	}
	variants, err := OverlayVariants(base, fsys, "v")
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	codes := make([]string, 0, len(variants))
	for _, v := range variants {
		codes = append(codes, v.Code)
	}
	if strings.Join(codes, ",") != "en,fa,fa-lite,de" {
		t.Fatalf("unexpected order %v", codes)
	}
	if variants[0].Brand != "Overridden" || variants[0].Direction != DirectionRTL {
		t.Fatalf("expected en to extend fa with a new brand, got %+v", variants[0])
	}
	if variants[3].Direction != DirectionLTR {
		t.Fatalf("expected default direction for de, got %s", variants[3].Direction)
	}
}
