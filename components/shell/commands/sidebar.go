package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

type sidebarService interface {
	SetSidebarOpen(ctx context.Context, sessionID string, open bool) error
	ToggleSidebar(ctx context.Context, sessionID string) (bool, error)
	ApplyViewport(ctx context.Context, sessionID string, width int) (bool, error)
}

// SetSidebarInput forces the sidebar state.
type SetSidebarInput struct {
	SessionID string
	Open      bool
}

// SetSidebarCommand opens or closes the sidebar explicitly.
type SetSidebarCommand struct {
	service   sidebarService
	telemetry Telemetry
}

// NewSetSidebarCommand creates the command.
func NewSetSidebarCommand(service sidebarService, telemetry Telemetry) *SetSidebarCommand {
	return &SetSidebarCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetSidebarInput] = (*SetSidebarCommand)(nil)

func (c *SetSidebarCommand) Execute(ctx context.Context, msg SetSidebarInput) error {
	if c.service == nil {
		return errors.New("sidebar command requires service")
	}
	if err := c.service.SetSidebarOpen(ctx, msg.SessionID, msg.Open); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "shell.sidebar.set", map[string]any{"session_id": msg.SessionID, "open": msg.Open})
	return nil
}

// ToggleSidebarInput flips the sidebar. Open receives the new state.
type ToggleSidebarInput struct {
	SessionID string
	Open      *bool
}

// ToggleSidebarCommand flips the sidebar.
type ToggleSidebarCommand struct {
	service   sidebarService
	telemetry Telemetry
}

// NewToggleSidebarCommand creates the command.
func NewToggleSidebarCommand(service sidebarService, telemetry Telemetry) *ToggleSidebarCommand {
	return &ToggleSidebarCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleSidebarInput] = (*ToggleSidebarCommand)(nil)

func (c *ToggleSidebarCommand) Execute(ctx context.Context, msg ToggleSidebarInput) error {
	if c.service == nil {
		return errors.New("sidebar command requires service")
	}
	open, err := c.service.ToggleSidebar(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	if msg.Open != nil {
		*msg.Open = open
	}
	c.telemetry.Record(ctx, "shell.sidebar.toggle", map[string]any{"session_id": msg.SessionID, "open": open})
	return nil
}

// ApplyViewportInput reports the browser viewport width.
type ApplyViewportInput struct {
	SessionID string
	Width     int
	Open      *bool
}

// ApplyViewportCommand recomputes the sidebar from the viewport width. A
// resize always wins over an earlier manual toggle.
type ApplyViewportCommand struct {
	service   sidebarService
	telemetry Telemetry
}

// NewApplyViewportCommand creates the command.
func NewApplyViewportCommand(service sidebarService, telemetry Telemetry) *ApplyViewportCommand {
	return &ApplyViewportCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyViewportInput] = (*ApplyViewportCommand)(nil)

func (c *ApplyViewportCommand) Execute(ctx context.Context, msg ApplyViewportInput) error {
	if c.service == nil {
		return errors.New("viewport command requires service")
	}
	open, err := c.service.ApplyViewport(ctx, msg.SessionID, msg.Width)
	if err != nil {
		return err
	}
	if msg.Open != nil {
		*msg.Open = open
	}
	c.telemetry.Record(ctx, "shell.sidebar.viewport", map[string]any{
		"session_id": msg.SessionID,
		"width":      msg.Width,
		"open":       open,
	})
	return nil
}
