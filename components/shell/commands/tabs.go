package commands

import (
	"context"
	"errors"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	gocommand "github.com/goliatone/go-command"
)

// OpenTabInput opens either a leaf menu item of the variant or an explicit tab.
// Result receives the navigation the caller should perform.
type OpenTabInput struct {
	SessionID string
	Variant   shell.Variant
	MenuID    string
	Tab       shell.Tab
	Result    *shell.Navigation
}

type tabService interface {
	OpenTab(ctx context.Context, sessionID string, tab shell.Tab) (shell.Navigation, error)
	OpenMenuItem(ctx context.Context, sessionID string, variant shell.Variant, menuID string) (shell.Navigation, error)
	CloseTab(ctx context.Context, sessionID, tabID string) (*shell.Navigation, error)
	SyncRoute(ctx context.Context, sessionID, path string) (shell.Tab, bool, error)
}

// OpenTabCommand adds or reactivates a tab.
type OpenTabCommand struct {
	service   tabService
	telemetry Telemetry
}

// NewOpenTabCommand creates the command.
func NewOpenTabCommand(service tabService, telemetry Telemetry) *OpenTabCommand {
	return &OpenTabCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[OpenTabInput] = (*OpenTabCommand)(nil)

// Execute opens the tab and reports the navigation.
func (c *OpenTabCommand) Execute(ctx context.Context, msg OpenTabInput) error {
	if c.service == nil {
		return errors.New("open tab command requires service")
	}
	var (
		nav shell.Navigation
		err error
	)
	if msg.MenuID != "" {
		nav, err = c.service.OpenMenuItem(ctx, msg.SessionID, msg.Variant, msg.MenuID)
	} else {
		nav, err = c.service.OpenTab(ctx, msg.SessionID, msg.Tab)
	}
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = nav
	}
	c.telemetry.Record(ctx, "shell.tab.open", map[string]any{
		"session_id": msg.SessionID,
		"menu_id":    msg.MenuID,
		"path":       nav.Path,
	})
	return nil
}

// CloseTabResult reports where to go after closing. Navigation is nil when
// the current page stays.
type CloseTabResult struct {
	Navigation *shell.Navigation
}

// CloseTabInput closes a tab of the session.
type CloseTabInput struct {
	SessionID string
	TabID     string
	Result    *CloseTabResult
}

// CloseTabCommand removes a tab from the tab bar.
type CloseTabCommand struct {
	service   tabService
	telemetry Telemetry
}

// NewCloseTabCommand creates the command.
func NewCloseTabCommand(service tabService, telemetry Telemetry) *CloseTabCommand {
	return &CloseTabCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseTabInput] = (*CloseTabCommand)(nil)

// Execute closes the tab.
func (c *CloseTabCommand) Execute(ctx context.Context, msg CloseTabInput) error {
	if c.service == nil {
		return errors.New("close tab command requires service")
	}
	if msg.TabID == "" {
		return errors.New("close tab command requires tab id")
	}
	nav, err := c.service.CloseTab(ctx, msg.SessionID, msg.TabID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		msg.Result.Navigation = nav
	}
	c.telemetry.Record(ctx, "shell.tab.close", map[string]any{
		"session_id": msg.SessionID,
		"tab_id":     msg.TabID,
		"navigated":  nav != nil,
	})
	return nil
}

// SyncRouteResult reports the tab matching the route.
type SyncRouteResult struct {
	Tab   shell.Tab
	Added bool
}

// SyncRouteInput reconciles the tab bar with a route.
type SyncRouteInput struct {
	SessionID string
	Path      string
	Result    *SyncRouteResult
}

// SyncRouteCommand makes the tab of the current route active.
type SyncRouteCommand struct {
	service   tabService
	telemetry Telemetry
}

// NewSyncRouteCommand creates the command.
func NewSyncRouteCommand(service tabService, telemetry Telemetry) *SyncRouteCommand {
	return &SyncRouteCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SyncRouteInput] = (*SyncRouteCommand)(nil)

// Execute syncs the route.
func (c *SyncRouteCommand) Execute(ctx context.Context, msg SyncRouteInput) error {
	if c.service == nil {
		return errors.New("sync route command requires service")
	}
	tab, added, err := c.service.SyncRoute(ctx, msg.SessionID, msg.Path)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = SyncRouteResult{Tab: tab, Added: added}
	}
	if added {
		c.telemetry.Record(ctx, "shell.tab.derive", map[string]any{
			"session_id": msg.SessionID,
			"tab_id":     tab.ID,
			"path":       tab.Path,
		})
	}
	return nil
}
