package main

import (
	"context"

	"github.com/alecthomas/kong"
)

// Globals are flags shared by every command.
type Globals struct {
	Config string `short:"c" type:"path" default:"adminshell.yaml" help:"Path to the YAML configuration file (missing files fall back to defaults)."`
}

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" help:"Run the admin shell HTTP server."`
	Routes   routesCmd   `cmd:"" help:"Print the pages each variant serves."`
	Variants variantsCmd `cmd:"" help:"Inspect variant definitions."`
}

func main() {
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("adminshell"),
		kong.Description("Server-rendered admin shell with tabs, themes and localized variants."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(&app.Globals)
	ctx.FatalIfErrorf(err)
}
