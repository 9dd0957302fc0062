package queries

import (
	"context"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	gocommand "github.com/goliatone/go-command"
)

// NavigationStateInput identifies the session to inspect.
type NavigationStateInput struct {
	SessionID string
}

type stateService interface {
	State(ctx context.Context, sessionID string) (shell.NavigationState, error)
}

// NavigationStateQuery returns the tab bar, menus and sidebar of a session.
type NavigationStateQuery struct {
	service stateService
}

// NewNavigationStateQuery builds the query.
func NewNavigationStateQuery(service stateService) *NavigationStateQuery {
	return &NavigationStateQuery{service: service}
}

var _ gocommand.Querier[NavigationStateInput, shell.NavigationState] = (*NavigationStateQuery)(nil)

// Query returns a snapshot of the navigation state.
func (q *NavigationStateQuery) Query(ctx context.Context, input NavigationStateInput) (shell.NavigationState, error) {
	return q.service.State(ctx, input.SessionID)
}
