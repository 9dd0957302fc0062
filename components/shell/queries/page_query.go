package queries

import (
	"context"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	gocommand "github.com/goliatone/go-command"
)

type pageService interface {
	PagePayload(ctx context.Context, req shell.PageRequest) (shell.PageView, error)
}

// PageQuery resolves a route to its page and template payload.
type PageQuery struct {
	service pageService
}

// NewPageQuery builds the query.
func NewPageQuery(service pageService) *PageQuery {
	return &PageQuery{service: service}
}

var _ gocommand.Querier[shell.PageRequest, shell.PageView] = (*PageQuery)(nil)

// Query resolves the page view for the request.
func (q *PageQuery) Query(ctx context.Context, req shell.PageRequest) (shell.PageView, error) {
	return q.service.PagePayload(ctx, req)
}
