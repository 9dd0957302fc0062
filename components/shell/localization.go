package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/message"
)

// TranslationService lets host applications override variant copy.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ResolveLocalizedValue selects the best translation for the provided locale and falls back to the supplied value.
// Keys are matched case-insensitively, and language-region pairs (`fa-ir`) fall back to their
// base language (`fa`) when present.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	if value, ok := values["default"]; ok && value != "" {
		return value
	}
	return fallback
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(locale)), "_", "-")
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}

// Localizer formats copy, numbers and dates for a variant.
type Localizer struct {
	variant      Variant
	printer      *message.Printer
	translations TranslationService
	digits       [10]string
}

// NewLocalizer builds a localizer for the variant locale.
func NewLocalizer(variant Variant, translations TranslationService) *Localizer {
	l := &Localizer{
		variant:      variant,
		printer:      message.NewPrinter(variant.Tag()),
		translations: translations,
	}
	for i := range l.digits {
		l.digits[i] = l.printer.Sprintf("%d", i)
	}
	return l
}

// Locale returns the variant locale.
func (l *Localizer) Locale() string {
	return l.variant.Locale
}

// Text resolves a copy key.
func (l *Localizer) Text(ctx context.Context, key string) string {
	return translateOrFallback(ctx, l.translations, key, l.variant.Locale, l.variant.Text(key), nil)
}

// Value picks the entry of a literal localized map.
func (l *Localizer) Value(values map[string]string, fallback string) string {
	return ResolveLocalizedValue(values, l.variant.Locale, fallback)
}

// Number formats an integer with locale grouping and digits.
func (l *Localizer) Number(n int) string {
	return l.printer.Sprintf("%d", n)
}

// Decimal formats a float with fixed precision.
func (l *Localizer) Decimal(f float64, precision int) string {
	return l.printer.Sprintf("%.*f", precision, f)
}

// Percent renders n followed by a percent sign.
func (l *Localizer) Percent(n int) string {
	return l.Digits(fmt.Sprintf("%d", n)) + "%"
}

// Digits transliterates ASCII digits into the locale digits.
func (l *Localizer) Digits(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			builder.WriteString(l.digits[r-'0'])
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// Weekday returns the short weekday name.
func (l *Localizer) Weekday(t time.Time) string {
	if len(l.variant.Weekdays) == 7 {
		return l.variant.Weekdays[t.Weekday()]
	}
	return t.Weekday().String()[:3]
}

// Month returns the month name.
func (l *Localizer) Month(t time.Time) string {
	if len(l.variant.Months) == 12 {
		return l.variant.Months[t.Month()-1]
	}
	return t.Month().String()[:3]
}

// Date renders t with the variant date layout in UTC.
func (l *Localizer) Date(t time.Time) string {
	t = t.UTC()
	replacer := strings.NewReplacer(
		"{weekday}", l.Weekday(t),
		"{day}", l.Digits(fmt.Sprintf("%d", t.Day())),
		"{month}", l.Month(t),
		"{year}", l.Digits(fmt.Sprintf("%d", t.Year())),
		"{time}", l.Digits(t.Format("15:04")),
	)
	return replacer.Replace(l.variant.DateLayout)
}
