package shell

import (
	core "github.com/goliatone/go-admin-shell/components/shell"
)

// Service exposes the underlying components/shell.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Variant and VariantRegistry re-exports.
type (
	Variant         = core.Variant
	VariantRegistry = core.VariantRegistry
	MenuItem        = core.MenuItem
)

// Controller re-exports.
type (
	Controller        = core.Controller
	ControllerOptions = core.ControllerOptions
)

// NewService proxies to the internal constructor.
func NewService(opts Options) (*Service, error) {
	return core.NewService(opts)
}

// NewController proxies to the internal constructor.
func NewController(opts ControllerOptions) *Controller {
	return core.NewController(opts)
}

// NewTemplateRenderer returns the renderer over the embedded templates.
func NewTemplateRenderer() (core.Renderer, error) {
	return core.NewTemplateRenderer()
}

// DefaultVariantRegistry loads the built-in en, fa and fa-lite variants.
func DefaultVariantRegistry() (*VariantRegistry, error) {
	return core.DefaultVariantRegistry()
}
