package shell

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed variants/*.yaml
var embeddedVariants embed.FS

// MenuItem is a sidebar entry. Items with children are submenus.
type MenuItem struct {
	ID       string     `yaml:"id" json:"id"`
	Label    string     `yaml:"label" json:"label"`
	Path     string     `yaml:"path,omitempty" json:"path,omitempty"`
	Icon     string     `yaml:"icon,omitempty" json:"icon,omitempty"`
	Children []MenuItem `yaml:"children,omitempty" json:"children,omitempty"`
}

// IsSubmenu reports whether the item groups other items.
func (m MenuItem) IsSubmenu() bool {
	return len(m.Children) > 0
}

// Tab builds the tab opened by the menu item.
func (m MenuItem) Tab() Tab {
	return Tab{ID: m.ID, Title: m.Label, Path: CleanPath(m.Path), Icon: m.Icon}
}

// Variant parameterizes the shell with locale, direction, menu and copy.
type Variant struct {
	Code       string            `yaml:"code" json:"code"`
	Extends    string            `yaml:"extends,omitempty" json:"-"`
	Locale     string            `yaml:"locale" json:"locale"`
	Direction  Direction         `yaml:"direction" json:"direction"`
	Brand      string            `yaml:"brand" json:"brand"`
	Menu       []MenuItem        `yaml:"menu" json:"menu"`
	Routes     []string          `yaml:"routes" json:"routes"`
	Copy       map[string]string `yaml:"copy" json:"-"`
	Weekdays   []string          `yaml:"weekdays,omitempty" json:"-"`
	Months     []string          `yaml:"months,omitempty" json:"-"`
	DateLayout string            `yaml:"date_layout,omitempty" json:"-"`
}

// Text returns the variant copy for key, or fallback when missing.
func (v Variant) Text(key string, fallback ...string) string {
	if value, ok := v.Copy[key]; ok && value != "" {
		return value
	}
	if len(fallback) > 0 && fallback[0] != "" {
		return fallback[0]
	}
	return key
}

// Tag returns the parsed locale.
func (v Variant) Tag() language.Tag {
	tag, err := language.Parse(v.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// RouteEnabled reports whether the variant wires the path. Variants without a
// route list enable every route.
func (v Variant) RouteEnabled(p string) bool {
	if len(v.Routes) == 0 {
		return true
	}
	p = CleanPath(p)
	for _, route := range v.Routes {
		if CleanPath(route) == p {
			return true
		}
	}
	return false
}

// FindMenuItem searches the menu tree by id.
func (v Variant) FindMenuItem(id string) (MenuItem, bool) {
	return findMenuItem(v.Menu, id)
}

func findMenuItem(items []MenuItem, id string) (MenuItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
		if found, ok := findMenuItem(item.Children, id); ok {
			return found, true
		}
	}
	return MenuItem{}, false
}

// MenuItemForPath returns the leaf menu item pointing at path.
func (v Variant) MenuItemForPath(p string) (MenuItem, bool) {
	p = CleanPath(p)
	var walk func([]MenuItem) (MenuItem, bool)
	walk = func(items []MenuItem) (MenuItem, bool) {
		for _, item := range items {
			if !item.IsSubmenu() && item.Path != "" && CleanPath(item.Path) == p {
				return item, true
			}
			if found, ok := walk(item.Children); ok {
				return found, true
			}
		}
		return MenuItem{}, false
	}
	return walk(v.Menu)
}

// Validate checks the variant is renderable.
func (v Variant) Validate() error {
	var errs []error
	if strings.TrimSpace(v.Code) == "" {
		errs = append(errs, errors.New("code is required"))
	}
	if _, err := language.Parse(v.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale %q: %w", v.Locale, err))
	}
	if v.Direction != DirectionLTR && v.Direction != DirectionRTL {
		errs = append(errs, fmt.Errorf("direction must be ltr or rtl, got %q", v.Direction))
	}
	if len(v.Menu) == 0 {
		errs = append(errs, errors.New("menu requires at least one item"))
	}
	seen := map[string]bool{}
	var walk func(prefix string, items []MenuItem)
	walk = func(prefix string, items []MenuItem) {
		for i, item := range items {
			where := fmt.Sprintf("%smenu[%d]", prefix, i)
			switch {
			case item.ID == "":
				errs = append(errs, fmt.Errorf("%s: id is required", where))
			case seen[item.ID]:
				errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, item.ID))
			}
			seen[item.ID] = true
			if item.Label == "" {
				errs = append(errs, fmt.Errorf("%s: label is required", where))
			}
			if !item.IsSubmenu() && item.Path == "" {
				errs = append(errs, fmt.Errorf("%s: leaf item requires a path", where))
			}
			walk(where+".", item.Children)
		}
	}
	walk("", v.Menu)
	for i, route := range v.Routes {
		if !strings.HasPrefix(route, "/") {
			errs = append(errs, fmt.Errorf("routes[%d]: %q must be absolute", i, route))
		}
	}
	if len(v.Weekdays) != 0 && len(v.Weekdays) != 7 {
		errs = append(errs, fmt.Errorf("weekdays requires 7 names, got %d", len(v.Weekdays)))
	}
	if len(v.Months) != 0 && len(v.Months) != 12 {
		errs = append(errs, fmt.Errorf("months requires 12 names, got %d", len(v.Months)))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("variant %q: %w", v.Code, errors.Join(errs...))
}

func (v *Variant) applyDefaults() {
	v.Code = strings.TrimSpace(v.Code)
	v.Direction = Direction(strings.ToLower(string(v.Direction)))
	if v.Direction == "" {
		v.Direction = DirectionLTR
	}
	if v.DateLayout == "" {
		v.DateLayout = "{month} {day}, {year} {time}"
	}
	for i, route := range v.Routes {
		v.Routes[i] = CleanPath(route)
	}
}

// inherit fills empty fields from parent.
func (v *Variant) inherit(parent Variant) {
	if v.Locale == "" {
		v.Locale = parent.Locale
	}
	if v.Direction == "" {
		v.Direction = parent.Direction
	}
	if v.Brand == "" {
		v.Brand = parent.Brand
	}
	if len(v.Menu) == 0 {
		v.Menu = parent.Menu
	}
	if len(v.Weekdays) == 0 {
		v.Weekdays = parent.Weekdays
	}
	if len(v.Months) == 0 {
		v.Months = parent.Months
	}
	if v.DateLayout == "" {
		v.DateLayout = parent.DateLayout
	}
	merged := make(map[string]string, len(parent.Copy)+len(v.Copy))
	for key, value := range parent.Copy {
		merged[key] = value
	}
	for key, value := range v.Copy {
		merged[key] = value
	}
	v.Copy = merged
}

// DecodeVariant parses a single YAML document, rejecting unknown fields.
func DecodeVariant(data []byte) (Variant, error) {
	var variant Variant
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&variant); err != nil {
		return Variant{}, fmt.Errorf("decode variant: %w", err)
	}
	return variant, nil
}

// LoadVariants reads every *.yaml file in dir, resolves extends and validates.
func LoadVariants(fsys fs.FS, dir string) ([]Variant, error) {
	raw, order, err := readVariantFiles(fsys, dir)
	if err != nil {
		return nil, err
	}
	return resolveVariants(raw, order, nil)
}

// OverlayVariants loads dir on top of base. Files may extend a base variant
// and replace one with the same code; new codes are appended.
func OverlayVariants(base []Variant, fsys fs.FS, dir string) ([]Variant, error) {
	raw, order, err := readVariantFiles(fsys, dir)
	if err != nil {
		return nil, err
	}
	seed := make(map[string]Variant, len(base))
	for _, variant := range base {
		if _, replaced := raw[variant.Code]; !replaced {
			seed[variant.Code] = variant
		}
	}
	loaded, err := resolveVariants(raw, order, seed)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]Variant, len(loaded))
	for _, variant := range loaded {
		byCode[variant.Code] = variant
	}
	out := make([]Variant, 0, len(base)+len(loaded))
	for _, variant := range base {
		if replacement, ok := byCode[variant.Code]; ok {
			variant = replacement
			delete(byCode, variant.Code)
		}
		out = append(out, variant)
	}
	for _, variant := range loaded {
		if _, pending := byCode[variant.Code]; pending {
			out = append(out, variant)
		}
	}
	return out, nil
}

func readVariantFiles(fsys fs.FS, dir string) (map[string]Variant, []string, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(matches)
	raw := make(map[string]Variant, len(matches))
	order := make([]string, 0, len(matches))
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", name, err)
		}
		variant, err := DecodeVariant(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := raw[variant.Code]; dup {
			return nil, nil, fmt.Errorf("%s: duplicate variant code %q", name, variant.Code)
		}
		raw[variant.Code] = variant
		order = append(order, variant.Code)
	}
	return raw, order, nil
}

// resolveVariants resolves extends chains in raw. Variants in resolved are
// already complete and may be extended but are not returned.
func resolveVariants(raw map[string]Variant, order []string, resolved map[string]Variant) ([]Variant, error) {
	if resolved == nil {
		resolved = make(map[string]Variant, len(raw))
	}
	var resolve func(code string, chain []string) (Variant, error)
	resolve = func(code string, chain []string) (Variant, error) {
		if v, ok := resolved[code]; ok {
			return v, nil
		}
		for _, seen := range chain {
			if seen == code {
				return Variant{}, fmt.Errorf("variant %q: extends cycle %s", code, strings.Join(append(chain, code), " -> "))
			}
		}
		v, ok := raw[code]
		if !ok {
			return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, code)
		}
		if v.Extends != "" {
			parent, err := resolve(v.Extends, append(chain, code))
			if err != nil {
				return Variant{}, err
			}
			v.inherit(parent)
		}
		v.applyDefaults()
		if err := v.Validate(); err != nil {
			return Variant{}, err
		}
		resolved[code] = v
		return v, nil
	}
	out := make([]Variant, 0, len(order))
	for _, code := range order {
		v, err := resolve(code, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// BuiltinVariants returns the embedded en, fa and fa-lite variants.
func BuiltinVariants() ([]Variant, error) {
	return LoadVariants(embeddedVariants, "variants")
}

// VariantRegistry stores variants and negotiates them from Accept-Language.
type VariantRegistry struct {
	mu          sync.RWMutex
	variants    map[string]Variant
	order       []string
	defaultCode string
	matcher     language.Matcher
	matchCodes  []string
}

// NewVariantRegistry creates a registry; the first registered variant is the default.
func NewVariantRegistry(variants ...Variant) (*VariantRegistry, error) {
	reg := &VariantRegistry{variants: map[string]Variant{}}
	if err := reg.ReplaceAll(variants); err != nil {
		return nil, err
	}
	return reg, nil
}

// DefaultVariantRegistry loads the built-in variants.
func DefaultVariantRegistry() (*VariantRegistry, error) {
	variants, err := BuiltinVariants()
	if err != nil {
		return nil, err
	}
	return NewVariantRegistry(variants...)
}

// Register adds or replaces a variant.
func (r *VariantRegistry) Register(variant Variant) error {
	variant.applyDefaults()
	if err := variant.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.variants[variant.Code]; !exists {
		r.order = append(r.order, variant.Code)
	}
	r.variants[variant.Code] = variant
	if r.defaultCode == "" {
		r.defaultCode = variant.Code
	}
	r.rebuildMatcherLocked()
	return nil
}

// ReplaceAll swaps the registry contents atomically, keeping the default
// when it is still present.
func (r *VariantRegistry) ReplaceAll(variants []Variant) error {
	next := make(map[string]Variant, len(variants))
	order := make([]string, 0, len(variants))
	for _, variant := range variants {
		variant.applyDefaults()
		if err := variant.Validate(); err != nil {
			return err
		}
		if _, dup := next[variant.Code]; dup {
			return fmt.Errorf("duplicate variant code %q", variant.Code)
		}
		next[variant.Code] = variant
		order = append(order, variant.Code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants = next
	r.order = order
	if _, ok := next[r.defaultCode]; !ok {
		r.defaultCode = ""
		if len(order) > 0 {
			r.defaultCode = order[0]
		}
	}
	r.rebuildMatcherLocked()
	return nil
}

// SetDefault selects the fallback variant.
func (r *VariantRegistry) SetDefault(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.variants[code]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariant, code)
	}
	r.defaultCode = code
	r.rebuildMatcherLocked()
	return nil
}

// Lookup returns the variant registered under code.
func (r *VariantRegistry) Lookup(code string) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	variant, ok := r.variants[code]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, code)
	}
	return variant, nil
}

// Default returns the fallback variant.
func (r *VariantRegistry) Default() Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.variants[r.defaultCode]
}

// Codes lists registered variants in registration order.
func (r *VariantRegistry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Match negotiates the best variant for an Accept-Language header. Several
// variants sharing a locale resolve to the first registered one.
func (r *VariantRegistry) Match(acceptLanguage string) Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fallback := r.variants[r.defaultCode]
	if r.matcher == nil || strings.TrimSpace(acceptLanguage) == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, confidence := r.matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(r.matchCodes) {
		return fallback
	}
	return r.variants[r.matchCodes[idx]]
}

func (r *VariantRegistry) rebuildMatcherLocked() {
	if len(r.order) == 0 {
		r.matcher = nil
		r.matchCodes = nil
		return
	}
	// The default goes first so it wins ties and acts as the matcher fallback.
	codes := append([]string{r.defaultCode}, r.order...)
	seenLocale := map[string]bool{}
	tags := make([]language.Tag, 0, len(codes))
	r.matchCodes = r.matchCodes[:0]
	for _, code := range codes {
		variant, ok := r.variants[code]
		if !ok {
			continue
		}
		tag := variant.Tag()
		if seenLocale[tag.String()] {
			continue
		}
		seenLocale[tag.String()] = true
		tags = append(tags, tag)
		r.matchCodes = append(r.matchCodes, code)
	}
	r.matcher = language.NewMatcher(tags)
}
