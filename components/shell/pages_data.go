package shell

import (
	"fmt"
	"time"
)

type localized = map[string]string

type metric struct {
	Key   string
	Value int
	Icon  string
	Tone  string
}

var dashboardMetrics = []metric{
	{Key: "metrics.total_channels", Value: 12, Icon: "radio", Tone: "primary"},
	{Key: "metrics.active_channels", Value: 9, Icon: "activity", Tone: "success"},
	{Key: "metrics.admin_users", Value: 3, Icon: "users", Tone: "primary"},
	{Key: "metrics.pending_approvals", Value: 2, Icon: "clock", Tone: "warning"},
}

type dailyActivity struct {
	Day   time.Time
	Value int
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

var weeklyActivity = []dailyActivity{
	{Day: day(2025, time.April, 22), Value: 70},
	{Day: day(2025, time.April, 23), Value: 40},
	{Day: day(2025, time.April, 24), Value: 65},
	{Day: day(2025, time.April, 25), Value: 50},
	{Day: day(2025, time.April, 26), Value: 20},
	{Day: day(2025, time.April, 27), Value: 30},
	{Day: day(2025, time.April, 28), Value: 90},
}

type activityEntry struct {
	Verb    string
	Subject localized
	Actor   localized
	At      time.Time
}

var recentActivities = []activityEntry{
	{
		Verb:    "create",
		Subject: localized{"en": "ATM channel #12 registered", "fa": "کانال خودپرداز شماره ۱۲ ثبت شد"},
		Actor:   localized{"en": "Ali Moradi", "fa": "علی مرادی"},
		At:      time.Date(2025, time.April, 28, 10, 30, 0, 0, time.UTC),
	},
	{
		Verb:    "update",
		Subject: localized{"en": "Mobile bank limits updated", "fa": "سقف تراکنش همراه بانک ویرایش شد"},
		Actor:   localized{"en": "Zahra Ahmadi", "fa": "زهرا احمدی"},
		At:      time.Date(2025, time.April, 27, 14, 15, 0, 0, time.UTC),
	},
	{
		Verb:    "approve",
		Subject: localized{"en": "POS terminal batch approved", "fa": "دسته پایانه‌های فروش تایید شد"},
		Actor:   localized{"en": "Ali Moradi", "fa": "علی مرادی"},
		At:      time.Date(2025, time.April, 26, 9, 45, 0, 0, time.UTC),
	},
	{
		Verb:    "delete",
		Subject: localized{"en": "Inactive internet bank user removed", "fa": "کاربر غیرفعال اینترنت بانک حذف شد"},
		Actor:   localized{"en": "Mehdi Rezaei", "fa": "مهدی رضایی"},
		At:      time.Date(2025, time.April, 25, 16, 20, 0, 0, time.UTC),
	},
}

var activityTones = map[string]string{
	"create":  "success",
	"update":  "primary",
	"approve": "success",
	"delete":  "danger",
}

type userRow struct {
	Name   localized
	Email  string
	Role   string
	Status string
}

var userRows = []userRow{
	{Name: localized{"en": "Ali Moradi", "fa": "علی مرادی"}, Email: "ali@example.com", Role: "admin", Status: "active"},
	{Name: localized{"en": "Zahra Ahmadi", "fa": "زهرا احمدی"}, Email: "zahra@example.com", Role: "user", Status: "inactive"},
	{Name: localized{"en": "Mehdi Rezaei", "fa": "مهدی رضایی"}, Email: "mehdi@example.com", Role: "user", Status: "pending"},
}

var statusTones = map[string]string{
	"active":     "success",
	"inactive":   "danger",
	"pending":    "warning",
	"completed":  "success",
	"processing": "warning",
	"cancelled":  "danger",
}

type productRow struct {
	Name  localized
	Price float64
	Stock int
}

var productRows = []productRow{
	{Name: localized{"en": "Premium Widget", "fa": "ویجت ویژه"}, Price: 99.99, Stock: 45},
	{Name: localized{"en": "Basic Gadget", "fa": "گجت پایه"}, Price: 49.99, Stock: 120},
	{Name: localized{"en": "Super Tool", "fa": "ابزار حرفه‌ای"}, Price: 199.99, Stock: 8},
}

// lowStock marks products that need restocking.
const lowStock = 10

type orderRow struct {
	ID       string
	Customer string
	Date     time.Time
	Status   string
	Total    float64
}

var orderRows = []orderRow{
	{ID: "#ORD-001", Customer: "John Doe", Date: day(2025, time.April, 28), Status: "completed", Total: 249.99},
	{ID: "#ORD-002", Customer: "Jane Smith", Date: day(2025, time.April, 27), Status: "processing", Total: 99.50},
	{ID: "#ORD-003", Customer: "Bob Johnson", Date: day(2025, time.April, 26), Status: "cancelled", Total: 149.75},
}

type performanceBar struct {
	Key     string
	Percent int
}

var performanceBars = []performanceBar{
	{Key: "performance.page_load", Percent: 45},
	{Key: "performance.api_latency", Percent: 32},
	{Key: "performance.uptime", Percent: 78},
}

type statistic struct {
	Label localized
	Value int
}

var userGrowth = []statistic{
	{Label: localized{"en": "New this month", "fa": "جدید در این ماه"}, Value: 128},
	{Label: localized{"en": "Returning", "fa": "بازگشتی"}, Value: 342},
	{Label: localized{"en": "Churned", "fa": "از دست رفته"}, Value: 17},
}

var trafficSources = []statistic{
	{Label: localized{"en": "Direct", "fa": "مستقیم"}, Value: 45},
	{Label: localized{"en": "Search", "fa": "جستجو"}, Value: 32},
	{Label: localized{"en": "Referral", "fa": "ارجاعی"}, Value: 23},
}

func dashboardData(pc PageContext) (map[string]any, error) {
	l := pc.Localizer
	metrics := make([]map[string]any, 0, len(dashboardMetrics))
	for _, m := range dashboardMetrics {
		metrics = append(metrics, map[string]any{
			"label": l.Text(pc.Context, m.Key),
			"value": l.Number(m.Value),
			"icon":  m.Icon,
			"tone":  m.Tone,
		})
	}
	bars := make([]map[string]any, 0, len(weeklyActivity))
	for _, d := range weeklyActivity {
		bars = append(bars, map[string]any{
			"label":  l.Weekday(d.Day),
			"value":  l.Number(d.Value),
			"height": d.Value,
		})
	}
	activities := make([]map[string]any, 0, len(recentActivities))
	for _, a := range recentActivities {
		activities = append(activities, map[string]any{
			"verb":    l.Text(pc.Context, "activity."+a.Verb),
			"tone":    activityTones[a.Verb],
			"subject": l.Value(a.Subject, a.Subject["en"]),
			"actor":   l.Value(a.Actor, a.Actor["en"]),
			"at":      l.Date(a.At),
		})
	}
	return map[string]any{
		"metrics":    metrics,
		"weekly":     bars,
		"activities": activities,
	}, nil
}

func usersData(pc PageContext) (map[string]any, error) {
	l := pc.Localizer
	rows := make([]map[string]any, 0, len(userRows))
	for _, u := range userRows {
		rows = append(rows, map[string]any{
			"name":        l.Value(u.Name, u.Name["en"]),
			"email":       u.Email,
			"role":        l.Text(pc.Context, "role."+u.Role),
			"status":      l.Text(pc.Context, "status."+u.Status),
			"status_tone": statusTones[u.Status],
		})
	}
	return map[string]any{"rows": rows}, nil
}

func productsData(pc PageContext) (map[string]any, error) {
	l := pc.Localizer
	rows := make([]map[string]any, 0, len(productRows))
	for _, p := range productRows {
		rows = append(rows, map[string]any{
			"name":      l.Value(p.Name, p.Name["en"]),
			"price":     "$" + l.Decimal(p.Price, 2),
			"stock":     l.Number(p.Stock),
			"low_stock": p.Stock < lowStock,
		})
	}
	return map[string]any{"rows": rows}, nil
}

func ordersData(pc PageContext) (map[string]any, error) {
	l := pc.Localizer
	rows := make([]map[string]any, 0, len(orderRows))
	for _, o := range orderRows {
		rows = append(rows, map[string]any{
			"id":          o.ID,
			"customer":    o.Customer,
			"date":        l.Digits(o.Date.Format("2006-01-02")),
			"status":      l.Text(pc.Context, "status."+o.Status),
			"status_tone": statusTones[o.Status],
			"total":       "$" + l.Decimal(o.Total, 2),
		})
	}
	return map[string]any{"rows": rows}, nil
}

func performanceData(pc PageContext) (map[string]any, error) {
	l := pc.Localizer
	bars := make([]map[string]any, 0, len(performanceBars))
	for _, b := range performanceBars {
		bars = append(bars, map[string]any{
			"label":   l.Text(pc.Context, b.Key),
			"percent": b.Percent,
			"display": l.Percent(b.Percent),
		})
	}
	return map[string]any{"bars": bars}, nil
}

func statisticsData(pc PageContext) (map[string]any, error) {
	l := pc.Localizer
	render := func(stats []statistic, percent bool) []map[string]any {
		out := make([]map[string]any, 0, len(stats))
		for _, s := range stats {
			display := l.Number(s.Value)
			if percent {
				display = l.Percent(s.Value)
			}
			out = append(out, map[string]any{
				"label":   l.Value(s.Label, s.Label["en"]),
				"value":   s.Value,
				"display": display,
			})
		}
		return out
	}
	return map[string]any{
		"user_growth":     render(userGrowth, false),
		"traffic_sources": render(trafficSources, true),
	}, nil
}

func settingsData(pc PageContext) (map[string]any, error) {
	values := DefaultSettings()
	if pc.Session != nil {
		values = pc.Session.Settings()
	}
	data := map[string]any{
		"values": values,
		"errors": map[string]string{},
		"saved":  pc.Session != nil && pc.Session.Banner.Visible(),
	}
	if pc.Form != nil {
		if submitted, ok := pc.Form.Values.(SettingsForm); ok {
			data["values"] = submitted
		}
		if pc.Form.Errors != nil {
			data["errors"] = pc.Form.Errors
		}
	}
	return data, nil
}

func loginData(pc PageContext) (map[string]any, error) {
	data := map[string]any{
		"values": LoginForm{},
		"errors": map[string]string{},
	}
	if pc.Form != nil {
		if submitted, ok := pc.Form.Values.(LoginForm); ok {
			submitted.Password = ""
			data["values"] = submitted
		}
		if pc.Form.Errors != nil {
			data["errors"] = pc.Form.Errors
		}
	}
	return data, nil
}

func placeholderData(bodyKey string) PageDataFunc {
	return func(pc PageContext) (map[string]any, error) {
		return map[string]any{"body": pc.Localizer.Text(pc.Context, bodyKey)}, nil
	}
}

func helpData(help *HelpContent) PageDataFunc {
	return func(pc PageContext) (map[string]any, error) {
		html, err := help.HTML(pc.Variant.Locale)
		if err != nil {
			return nil, fmt.Errorf("help page: %w", err)
		}
		return map[string]any{"content": html}, nil
	}
}
