package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ettle/strcase"
)

// ErrPageNotFound is returned by Lookup for unknown page codes.
var ErrPageNotFound = errors.New("shell: page not found")

// DashboardPage is the code of the catch-all page.
const DashboardPage = "dashboard"

// PageContext is everything a page may read while building its view.
type PageContext struct {
	Context   context.Context
	Variant   Variant
	Localizer *Localizer
	Session   *Session
	Path      string
	Form      *FormState
}

// FormState carries submitted values and field errors back to a page.
type FormState struct {
	Values any
	Errors map[string]string
}

// PageDataFunc builds the template payload of a page from literal data.
type PageDataFunc func(PageContext) (map[string]any, error)

// Page is a route backed by a static view.
type Page struct {
	Code       string
	Path       string
	TitleKey   string
	Icon       string
	Template   string
	Standalone bool
	Data       PageDataFunc
}

// Title resolves the page title for a localizer.
func (p Page) Title(ctx context.Context, l *Localizer) string {
	if l == nil {
		return p.TitleKey
	}
	return l.Text(ctx, p.TitleKey)
}

// PageRegistry maps route paths to pages.
type PageRegistry struct {
	mu       sync.RWMutex
	byPath   map[string]Page
	byCode   map[string]Page
	order    []string
	fallback string
}

// NewPageRegistry creates an empty registry whose catch-all is the dashboard.
func NewPageRegistry() *PageRegistry {
	return &PageRegistry{
		byPath:   map[string]Page{},
		byCode:   map[string]Page{},
		fallback: DashboardPage,
	}
}

// Register adds a page. The template defaults to pages/<snake_case code>.html.
func (r *PageRegistry) Register(page Page) error {
	if page.Code == "" {
		return errors.New("shell: page code is required")
	}
	if page.Path == "" {
		return fmt.Errorf("shell: page %s requires a path", page.Code)
	}
	page.Path = CleanPath(page.Path)
	if page.Template == "" {
		page.Template = "pages/" + strcase.ToSnake(page.Code) + ".html"
	}
	if page.Data == nil {
		page.Data = func(PageContext) (map[string]any, error) { return map[string]any{}, nil }
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byPath[page.Path]; ok && existing.Code != page.Code {
		return fmt.Errorf("shell: path %s already served by %s", page.Path, existing.Code)
	}
	if _, ok := r.byCode[page.Code]; !ok {
		r.order = append(r.order, page.Code)
	}
	r.byPath[page.Path] = page
	r.byCode[page.Code] = page
	return nil
}

// Lookup returns the page registered under code.
func (r *PageRegistry) Lookup(code string) (Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	page, ok := r.byCode[code]
	if !ok {
		return Page{}, fmt.Errorf("%w: %s", ErrPageNotFound, code)
	}
	return page, nil
}

// Resolve maps a path to the page a variant serves there. Unknown paths and
// routes the variant does not wire fall back to the dashboard.
func (r *PageRegistry) Resolve(variant Variant, path string) (Page, bool) {
	path = CleanPath(path)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if page, ok := r.byPath[path]; ok && variant.RouteEnabled(path) {
		return page, true
	}
	return r.byCode[r.fallback], false
}

// Pages lists the registered pages in registration order.
func (r *PageRegistry) Pages() []Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Page, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.byCode[code])
	}
	return out
}

// RoutesFor lists the pages a variant serves.
func (r *PageRegistry) RoutesFor(variant Variant) []Page {
	var out []Page
	for _, page := range r.Pages() {
		if variant.RouteEnabled(page.Path) {
			out = append(out, page)
		}
	}
	return out
}

// DefaultPageRegistry registers every built-in page.
func DefaultPageRegistry(help *HelpContent) *PageRegistry {
	if help == nil {
		help = NewHelpContent(nil)
	}
	reg := NewPageRegistry()
	for _, page := range builtinPages(help) {
		if err := reg.Register(page); err != nil {
			panic(err)
		}
	}
	return reg
}

func builtinPages(help *HelpContent) []Page {
	return []Page{
		{Code: "dashboard", Path: RootPath, TitleKey: "dashboard.title", Icon: "layout-dashboard", Data: dashboardData},
		{Code: "login", Path: LoginPath, TitleKey: "login.title", Icon: "log-in", Standalone: true, Data: loginData},
		{Code: "users", Path: "/users", TitleKey: "users.title", Icon: "users", Data: usersData},
		{Code: "settings", Path: "/settings", TitleKey: "settings.title", Icon: "settings", Data: settingsData},
		{Code: "calendar", Path: "/calendar", TitleKey: "calendar.title", Icon: "calendar", Data: placeholderData("calendar.body")},
		{Code: "analytics", Path: "/analytics", TitleKey: "analytics.title", Icon: "bar-chart", Data: placeholderData("analytics.alert")},
		{Code: "analyticsPerformance", Path: "/analytics/performance", TitleKey: "performance.title", Icon: "activity", Data: performanceData},
		{Code: "analyticsStatistics", Path: "/analytics/statistics", TitleKey: "statistics.title", Icon: "trending-up", Data: statisticsData},
		{Code: "communicationEmail", Path: "/communication/email", TitleKey: "email.title", Icon: "mail", Data: placeholderData("email.body")},
		{Code: "communicationChat", Path: "/communication/chat", TitleKey: "chat.title", Icon: "message-circle", Data: placeholderData("chat.body")},
		{Code: "ecommerceProducts", Path: "/ecommerce/products", TitleKey: "products.title", Icon: "package", Data: productsData},
		{Code: "ecommerceOrders", Path: "/ecommerce/orders", TitleKey: "orders.title", Icon: "clipboard-list", Data: ordersData},
		{Code: "help", Path: "/help", TitleKey: "help.title", Icon: "help-circle", Data: helpData(help)},
	}
}
