package commands

import (
	"context"
	"errors"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	gocommand "github.com/goliatone/go-command"
)

type themeService interface {
	SetTheme(ctx context.Context, sessionID string, store *shell.ThemeStore, theme shell.Theme) error
	ToggleTheme(ctx context.Context, sessionID string, store *shell.ThemeStore) (shell.Theme, error)
}

// SetThemeInput stores an explicit theme preference.
type SetThemeInput struct {
	SessionID string
	Store     *shell.ThemeStore
	Theme     shell.Theme
}

// SetThemeCommand persists a theme preference.
type SetThemeCommand struct {
	service   themeService
	telemetry Telemetry
}

// NewSetThemeCommand creates the command.
func NewSetThemeCommand(service themeService, telemetry Telemetry) *SetThemeCommand {
	return &SetThemeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetThemeInput] = (*SetThemeCommand)(nil)

func (c *SetThemeCommand) Execute(ctx context.Context, msg SetThemeInput) error {
	if c.service == nil {
		return errors.New("theme command requires service")
	}
	if err := c.service.SetTheme(ctx, msg.SessionID, msg.Store, msg.Theme); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "shell.theme.set", map[string]any{"session_id": msg.SessionID, "theme": string(msg.Theme)})
	return nil
}

// ToggleThemeInput switches between light and dark. Result receives the new
// preference.
type ToggleThemeInput struct {
	SessionID string
	Store     *shell.ThemeStore
	Result    *shell.Theme
}

// ToggleThemeCommand flips the theme.
type ToggleThemeCommand struct {
	service   themeService
	telemetry Telemetry
}

// NewToggleThemeCommand creates the command.
func NewToggleThemeCommand(service themeService, telemetry Telemetry) *ToggleThemeCommand {
	return &ToggleThemeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleThemeInput] = (*ToggleThemeCommand)(nil)

func (c *ToggleThemeCommand) Execute(ctx context.Context, msg ToggleThemeInput) error {
	if c.service == nil {
		return errors.New("theme command requires service")
	}
	next, err := c.service.ToggleTheme(ctx, msg.SessionID, msg.Store)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = next
	}
	c.telemetry.Record(ctx, "shell.theme.toggle", map[string]any{"session_id": msg.SessionID, "theme": string(next)})
	return nil
}
