package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// ToggleMenuInput flips a submenu. Open receives the new state.
type ToggleMenuInput struct {
	SessionID string
	MenuID    string
	Open      *bool
}

type menuService interface {
	ToggleMenu(ctx context.Context, sessionID, menuID string) (bool, error)
}

// ToggleMenuCommand expands or collapses a sidebar submenu.
type ToggleMenuCommand struct {
	service   menuService
	telemetry Telemetry
}

// NewToggleMenuCommand creates the command.
func NewToggleMenuCommand(service menuService, telemetry Telemetry) *ToggleMenuCommand {
	return &ToggleMenuCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleMenuInput] = (*ToggleMenuCommand)(nil)

func (c *ToggleMenuCommand) Execute(ctx context.Context, msg ToggleMenuInput) error {
	if c.service == nil {
		return errors.New("toggle menu command requires service")
	}
	if msg.MenuID == "" {
		return errors.New("toggle menu command requires menu id")
	}
	open, err := c.service.ToggleMenu(ctx, msg.SessionID, msg.MenuID)
	if err != nil {
		return err
	}
	if msg.Open != nil {
		*msg.Open = open
	}
	c.telemetry.Record(ctx, "shell.menu.toggle", map[string]any{
		"session_id": msg.SessionID,
		"menu_id":    msg.MenuID,
		"open":       open,
	})
	return nil
}
