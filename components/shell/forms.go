package shell

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

const (
	FormLogin    = "login"
	FormSettings = "settings"
)

// LoginForm is submitted from the standalone login page. No credential check
// happens; only required fields are enforced.
type LoginForm struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RememberMe   bool   `json:"remember_me"`
	ShowPassword bool   `json:"-"`
}

// SettingsForm holds the site and mail settings page values.
type SettingsForm struct {
	SiteName    string `json:"site_name"`
	SiteURL     string `json:"site_url"`
	Maintenance bool   `json:"maintenance"`
	SMTPHost    string `json:"smtp_host"`
	SMTPPort    string `json:"smtp_port"`
	SMTPSecure  bool   `json:"smtp_secure"`
}

// DefaultSettings returns the values a new shell starts with.
func DefaultSettings() SettingsForm {
	return SettingsForm{
		SiteName:    "ادمین‌داش",
		SiteURL:     "https://admindash.example.com",
		Maintenance: false,
		SMTPHost:    "smtp.example.com",
		SMTPPort:    "587",
		SMTPSecure:  true,
	}
}

func (f LoginForm) normalized() LoginForm {
	f.Email = strings.TrimSpace(f.Email)
	return f
}

func (f SettingsForm) normalized() SettingsForm {
	f.SiteName = strings.TrimSpace(f.SiteName)
	f.SiteURL = strings.TrimSpace(f.SiteURL)
	f.SMTPHost = strings.TrimSpace(f.SMTPHost)
	f.SMTPPort = strings.TrimSpace(f.SMTPPort)
	return f
}

// FormValidator checks a form payload and returns copy keys per failing field.
type FormValidator interface {
	Validate(form string, payload any) (map[string]string, error)
}

// fieldMessages maps "field/keyword" to a copy key.
var fieldMessages = map[string]string{
	"email/minLength":     "validation.email_required",
	"password/minLength":  "validation.password_required",
	"site_name/minLength": "validation.site_name_required",
	"site_url/minLength":  "validation.site_url_required",
	"site_url/pattern":    "validation.site_url_format",
	"smtp_host/minLength": "validation.smtp_host_required",
	"smtp_port/pattern":   "validation.smtp_port_format",
}

// keywords listed first win when a field fails several.
var keywordPriority = map[string]int{"required": 0, "minLength": 1, "type": 2, "pattern": 3}

// JSONSchemaFormValidator validates forms against embedded JSON schemas.
type JSONSchemaFormValidator struct {
	mu       sync.RWMutex
	fsys     embed.FS
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaFormValidator builds the default validator.
func NewJSONSchemaFormValidator() *JSONSchemaFormValidator {
	return &JSONSchemaFormValidator{
		fsys:     embeddedSchemas,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate implements FormValidator.
func (v *JSONSchemaFormValidator) Validate(form string, payload any) (map[string]string, error) {
	schema, err := v.schemaFor(form)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("shell: marshal %s form: %w", form, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("shell: normalize %s form: %w", form, err)
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("shell: validate %s form: %w", form, err)
	}
	return collectFieldErrors(verr), nil
}

func collectFieldErrors(root *jsonschema.ValidationError) map[string]string {
	type hit struct {
		keyword string
		rank    int
	}
	best := map[string]hit{}
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				walk(cause)
			}
			return
		}
		keyword := path.Base(e.KeywordLocation)
		field := strings.TrimPrefix(e.InstanceLocation, "/")
		if keyword == "required" {
			field = missingProperty(e.Message)
		}
		if field == "" {
			return
		}
		rank, ok := keywordPriority[keyword]
		if !ok {
			rank = len(keywordPriority)
		}
		if current, seen := best[field]; seen && current.rank <= rank {
			return
		}
		best[field] = hit{keyword: keyword, rank: rank}
	}
	walk(root)
	if len(best) == 0 {
		return nil
	}
	out := make(map[string]string, len(best))
	for field, h := range best {
		key, ok := fieldMessages[field+"/"+h.keyword]
		if !ok {
			key = "validation.required"
		}
		out[field] = key
	}
	return out
}

// missingProperty extracts the first name from "missing properties: 'a', 'b'".
func missingProperty(message string) string {
	start := strings.Index(message, "'")
	if start < 0 {
		return ""
	}
	end := strings.Index(message[start+1:], "'")
	if end < 0 {
		return ""
	}
	return message[start+1 : start+1+end]
}

func (v *JSONSchemaFormValidator) schemaFor(form string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[form]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	name := "schemas/" + form + ".json"
	data, err := v.fsys.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("shell: unknown form %q", form)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("shell: load schema %s: %w", form, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("shell: compile schema %s: %w", form, err)
	}
	v.mu.Lock()
	v.compiled[form] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// localizeFieldErrors turns copy keys into a ValidationError.
func localizeFieldErrors(form string, keys map[string]string, text func(string) string) *ValidationError {
	if len(keys) == 0 {
		return nil
	}
	out := &ValidationError{Form: form, Fields: make(map[string]string, len(keys))}
	for field, key := range keys {
		out.Fields[field] = text(key)
	}
	return out
}
