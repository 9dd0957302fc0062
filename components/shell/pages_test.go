package shell

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestPageRegistryResolveCatchAll(t *testing.T) {
	pages := DefaultPageRegistry(nil)
	en := mustVariant(t, "en")

	page, served := pages.Resolve(en, "/ecommerce/orders/")
	if !served || page.Code != "ecommerceOrders" || page.Template != "pages/ecommerce_orders.html" {
		t.Fatalf("unexpected page %+v served=%v", page, served)
	}
	page, served = pages.Resolve(en, "/no/such/page?x=1")
	if served || page.Code != DashboardPage {
		t.Fatalf("unknown routes must render the dashboard, got %+v", page)
	}
}

func TestPageRegistryHonorsVariantRoutes(t *testing.T) {
	pages := DefaultPageRegistry(nil)
	lite := mustVariant(t, "fa-lite")

	if page, served := pages.Resolve(lite, "/calendar"); served || page.Code != DashboardPage {
		t.Fatalf("routes the variant does not wire fall back to the dashboard, got %+v", page)
	}
	if _, served := pages.Resolve(lite, "/settings"); !served {
		t.Fatalf("expected settings to be served")
	}
	codes := map[string]bool{}
	for _, page := range pages.RoutesFor(lite) {
		codes[page.Code] = true
	}
	if codes["calendar"] || !codes["users"] || !codes["help"] {
		t.Fatalf("unexpected routes %v", codes)
	}
}

func TestPageRegistryRegister(t *testing.T) {
	pages := NewPageRegistry()
	if err := pages.Register(Page{Path: "/x"}); err == nil {
		t.Fatalf("expected missing code error")
	}
	if err := pages.Register(Page{Code: "reportSummary", Path: "/reports/summary/"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	page, err := pages.Lookup("reportSummary")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if page.Path != "/reports/summary" || page.Template != "pages/report_summary.html" || page.Data == nil {
		t.Fatalf("unexpected defaults %+v", page)
	}
	if err := pages.Register(Page{Code: "other", Path: "/reports/summary"}); err == nil {
		t.Fatalf("expected duplicate path error")
	}
	if _, err := pages.Lookup("missing"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func pageData(t *testing.T, code string, pc PageContext) map[string]any {
	t.Helper()
	page, err := DefaultPageRegistry(nil).Lookup(code)
	if err != nil {
		t.Fatalf("lookup %s: %v", code, err)
	}
	if pc.Context == nil {
		pc.Context = context.Background()
	}
	data, err := page.Data(pc)
	if err != nil {
		t.Fatalf("%s data: %v", code, err)
	}
	return data
}

func TestDashboardDataLocalized(t *testing.T) {
	fa := mustVariant(t, "fa")
	l := NewLocalizer(fa, nil)
	data := pageData(t, "dashboard", PageContext{Variant: fa, Localizer: l})
	metrics := data["metrics"].([]map[string]any)
	if len(metrics) != 4 || metrics[0]["value"] != l.Number(12) || metrics[0]["label"] == "metrics.total_channels" {
		t.Fatalf("expected localized metrics, got %v", metrics)
	}
	weekly := data["weekly"].([]map[string]any)
	if len(weekly) != 7 || weekly[6]["label"] != "دوشنبه" || weekly[6]["height"] != 90 {
		t.Fatalf("unexpected weekly bars %v", weekly)
	}
	activities := data["activities"].([]map[string]any)
	if activities[0]["actor"] != "علی مرادی" || activities[3]["tone"] != "danger" {
		t.Fatalf("unexpected activities %v", activities)
	}
}

func TestTableDataLocalized(t *testing.T) {
	en := mustVariant(t, "en")
	pc := PageContext{Variant: en, Localizer: NewLocalizer(en, nil)}

	users := pageData(t, "users", pc)["rows"].([]map[string]any)
	if users[1]["status"] != "Inactive" || users[1]["status_tone"] != "danger" || users[0]["role"] != "Administrator" {
		t.Fatalf("unexpected users %v", users)
	}
	products := pageData(t, "ecommerceProducts", pc)["rows"].([]map[string]any)
	if products[0]["price"] != "$99.99" || products[2]["low_stock"] != true || products[1]["low_stock"] != false {
		t.Fatalf("unexpected products %v", products)
	}
	orders := pageData(t, "ecommerceOrders", pc)["rows"].([]map[string]any)
	if orders[0]["date"] != "2025-04-28" || orders[2]["status"] != "Cancelled" {
		t.Fatalf("unexpected orders %v", orders)
	}
	bars := pageData(t, "analyticsPerformance", pc)["bars"].([]map[string]any)
	if bars[2]["display"] != "78%" || bars[0]["percent"] != 45 {
		t.Fatalf("unexpected performance bars %v", bars)
	}
}

func TestSettingsDataShowsSubmittedForm(t *testing.T) {
	en := mustVariant(t, "en")
	svc, session := newTestService(t, Options{})
	pc := PageContext{Variant: en, Localizer: svc.Localizer(en), Session: session}

	data := pageData(t, "settings", pc)
	if data["values"].(SettingsForm) != DefaultSettings() || data["saved"] != false {
		t.Fatalf("unexpected defaults %v", data)
	}

	submitted := SettingsForm{SiteName: "", SiteURL: "nope"}
	pc.Form = &FormState{Values: submitted, Errors: map[string]string{"site_name": "Site name is required"}}
	data = pageData(t, "settings", pc)
	if data["values"].(SettingsForm) != submitted || data["errors"].(map[string]string)["site_name"] == "" {
		t.Fatalf("expected submitted values and errors, got %v", data)
	}
}

func TestLoginDataClearsPassword(t *testing.T) {
	en := mustVariant(t, "en")
	pc := PageContext{
		Variant:   en,
		Localizer: NewLocalizer(en, nil),
		Form:      &FormState{Values: LoginForm{Email: "a@b.c", Password: "secret", ShowPassword: true}},
	}
	values := pageData(t, "login", pc)["values"].(LoginForm)
	if values.Password != "" || values.Email != "a@b.c" || !values.ShowPassword {
		t.Fatalf("unexpected login values %+v", values)
	}
}

func TestHelpContentRendersMarkdown(t *testing.T) {
	help := NewHelpContent(nil)
	html, err := help.HTML("fa-IR")
	if err != nil {
		t.Fatalf("HTML returned error: %v", err)
	}
	if !strings.Contains(html, "<h2") {
		t.Fatalf("expected rendered headings, got %s", html)
	}
	fallback, err := help.HTML("de-DE")
	if err != nil {
		t.Fatalf("expected english fallback, got %v", err)
	}
	if !strings.Contains(fallback, `id="getting-started"`) {
		t.Fatalf("expected auto heading ids, got %s", fallback)
	}
}

func TestHelpContentCustomFS(t *testing.T) {
	help := NewHelpContent(fstest.MapFS{
		"content/help.en.md": {Data: []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")},
	})
	html, err := help.HTML("en")
	if err != nil {
		t.Fatalf("HTML returned error: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Fatalf("expected GFM table, got %s", html)
	}
	empty := NewHelpContent(fstest.MapFS{})
	if _, err := empty.HTML("en"); err == nil {
		t.Fatalf("expected error when no document exists")
	}
}
