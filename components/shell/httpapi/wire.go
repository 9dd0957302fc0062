package httpapi

import (
	"errors"
	"log/slog"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/goliatone/go-admin-shell/components/shell/commands"
	"github.com/goliatone/go-admin-shell/components/shell/queries"
)

// Dependencies are the collaborators NewHandlers wires into commands.
type Dependencies struct {
	Service    *shell.Service
	Controller *shell.Controller
	Sessions   *SessionManager
	Events     *shell.BroadcastHook
	Telemetry  shell.Telemetry
	Logger     *slog.Logger
	Secure     bool
}

// NewHandlers builds handlers whose commands all call the same service.
func NewHandlers(deps Dependencies) (*Handlers, error) {
	if deps.Service == nil {
		return nil, errors.New("httpapi: service is required")
	}
	if deps.Controller == nil {
		return nil, errors.New("httpapi: controller is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("httpapi: session manager is required")
	}
	svc := deps.Service
	var telemetry commands.Telemetry
	if deps.Telemetry != nil {
		telemetry = deps.Telemetry
	}
	return &Handlers{
		Pages:     deps.Controller,
		Variants:  svc.Variants(),
		Sessions:  deps.Sessions,
		Events:    deps.Events,
		Telemetry: deps.Telemetry,
		Logger:    deps.Logger,
		BasePath:  deps.Controller.BasePath(),
		Secure:    deps.Secure,

		OpenTab:       commands.NewOpenTabCommand(svc, telemetry),
		CloseTab:      commands.NewCloseTabCommand(svc, telemetry),
		ToggleMenu:    commands.NewToggleMenuCommand(svc, telemetry),
		SyncRoute:     commands.NewSyncRouteCommand(svc, telemetry),
		SetSidebar:    commands.NewSetSidebarCommand(svc, telemetry),
		ToggleSidebar: commands.NewToggleSidebarCommand(svc, telemetry),
		ApplyViewport: commands.NewApplyViewportCommand(svc, telemetry),
		SetTheme:      commands.NewSetThemeCommand(svc, telemetry),
		ToggleTheme:   commands.NewToggleThemeCommand(svc, telemetry),
		SaveSettings:  commands.NewSaveSettingsCommand(svc, telemetry),
		SubmitLogin:   commands.NewSubmitLoginCommand(svc, telemetry),
		State:         queries.NewNavigationStateQuery(svc),
	}, nil
}
