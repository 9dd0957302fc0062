package commands

import (
	"context"
	"errors"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	gocommand "github.com/goliatone/go-command"
)

type formService interface {
	SaveSettings(ctx context.Context, sessionID string, variant shell.Variant, form shell.SettingsForm) error
	SubmitLogin(ctx context.Context, variant shell.Variant, form shell.LoginForm) error
}

// SaveSettingsInput carries a submitted settings form.
type SaveSettingsInput struct {
	SessionID string
	Variant   shell.Variant
	Form      shell.SettingsForm
}

// SaveSettingsCommand validates and stores settings. Validation failures are
// returned as *shell.ValidationError.
type SaveSettingsCommand struct {
	service   formService
	telemetry Telemetry
}

// NewSaveSettingsCommand creates the command.
func NewSaveSettingsCommand(service formService, telemetry Telemetry) *SaveSettingsCommand {
	return &SaveSettingsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveSettingsInput] = (*SaveSettingsCommand)(nil)

func (c *SaveSettingsCommand) Execute(ctx context.Context, msg SaveSettingsInput) error {
	if c.service == nil {
		return errors.New("settings command requires service")
	}
	if err := c.service.SaveSettings(ctx, msg.SessionID, msg.Variant, msg.Form); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "shell.settings.save", map[string]any{
		"session_id": msg.SessionID,
		"variant":    msg.Variant.Code,
	})
	return nil
}

// SubmitLoginInput carries a submitted login form.
type SubmitLoginInput struct {
	Variant shell.Variant
	Form    shell.LoginForm
}

// SubmitLoginCommand checks the login form for required fields.
type SubmitLoginCommand struct {
	service   formService
	telemetry Telemetry
}

// NewSubmitLoginCommand creates the command.
func NewSubmitLoginCommand(service formService, telemetry Telemetry) *SubmitLoginCommand {
	return &SubmitLoginCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SubmitLoginInput] = (*SubmitLoginCommand)(nil)

func (c *SubmitLoginCommand) Execute(ctx context.Context, msg SubmitLoginInput) error {
	if c.service == nil {
		return errors.New("login command requires service")
	}
	if err := c.service.SubmitLogin(ctx, msg.Variant, msg.Form); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "shell.login.submit", map[string]any{
		"variant":     msg.Variant.Code,
		"remember_me": msg.Form.RememberMe,
	})
	return nil
}
