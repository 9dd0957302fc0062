package shell

import (
	"testing"
)

func TestLoginValidationRequiresEmailAndPassword(t *testing.T) {
	v := NewJSONSchemaFormValidator()
	fields, err := v.Validate(FormLogin, LoginForm{}.normalized())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if fields["email"] != "validation.email_required" {
		t.Fatalf("expected email message, got %v", fields)
	}
	if fields["password"] != "validation.password_required" {
		t.Fatalf("expected password message, got %v", fields)
	}
}

func TestLoginValidationAcceptsAnyCredentials(t *testing.T) {
	v := NewJSONSchemaFormValidator()
	fields, err := v.Validate(FormLogin, LoginForm{Email: "a", Password: "b"})
	if err != nil || len(fields) != 0 {
		t.Fatalf("expected valid form, got %v %v", fields, err)
	}
}

func TestLoginValidationTrimsEmail(t *testing.T) {
	v := NewJSONSchemaFormValidator()
	fields, _ := v.Validate(FormLogin, LoginForm{Email: "   ", Password: "x"}.normalized())
	if _, ok := fields["email"]; !ok || len(fields) != 1 {
		t.Fatalf("expected only email error, got %v", fields)
	}
}

func TestSettingsValidation(t *testing.T) {
	v := NewJSONSchemaFormValidator()
	if fields, err := v.Validate(FormSettings, DefaultSettings()); err != nil || len(fields) != 0 {
		t.Fatalf("expected defaults valid, got %v %v", fields, err)
	}
	form := DefaultSettings()
	form.SiteURL = ""
	form.SMTPPort = "70000"
	form.SiteName = " "
	fields, err := v.Validate(FormSettings, form.normalized())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := map[string]string{
		"site_url":  "validation.site_url_required",
		"smtp_port": "validation.smtp_port_format",
		"site_name": "validation.site_name_required",
	}
	if len(fields) != len(want) {
		t.Fatalf("expected %v, got %v", want, fields)
	}
	for field, key := range want {
		if fields[field] != key {
			t.Fatalf("field %s: expected %s, got %s", field, key, fields[field])
		}
	}
}

func TestSettingsValidationURLFormat(t *testing.T) {
	v := NewJSONSchemaFormValidator()
	form := DefaultSettings()
	form.SiteURL = "admindash"
	fields, _ := v.Validate(FormSettings, form)
	if fields["site_url"] != "validation.site_url_format" {
		t.Fatalf("expected format message, got %v", fields)
	}
}

func TestValidateUnknownForm(t *testing.T) {
	if _, err := NewJSONSchemaFormValidator().Validate("signup", struct{}{}); err == nil {
		t.Fatalf("expected unknown form error")
	}
}

func TestMissingProperty(t *testing.T) {
	if got := missingProperty("missing properties: 'email', 'password'"); got != "email" {
		t.Fatalf("unexpected property %q", got)
	}
	if got := missingProperty("nothing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestLocalizeFieldErrors(t *testing.T) {
	en := mustVariant(t, "en")
	err := localizeFieldErrors(FormLogin, map[string]string{"email": "validation.email_required"}, func(key string) string { return en.Text(key) })
	if err.Fields["email"] != "Email is required" {
		t.Fatalf("unexpected message %q", err.Fields["email"])
	}
	if err.Error() != "shell: login form invalid: email" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
	if localizeFieldErrors(FormLogin, nil, nil) != nil {
		t.Fatalf("expected nil for no fields")
	}
}
