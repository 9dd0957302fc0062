package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	shell "github.com/goliatone/go-admin-shell/components/shell"
	"github.com/goliatone/go-admin-shell/pkg/config"
)

type routesCmd struct {
	Variant string `help:"Only print the routes of this variant."`
}

func (cmd *routesCmd) Run(_ context.Context, g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	variants, err := loadVariants(cfg.Shell.VariantsDir)
	if err != nil {
		return err
	}
	return printRoutes(os.Stdout, shell.DefaultPageRegistry(nil), variants, cmd.Variant, cfg.Server.BasePath)
}

func printRoutes(out io.Writer, pages *shell.PageRegistry, variants []shell.Variant, only, base string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tDIR\tPATH\tPAGE\tTEMPLATE")
	found := false
	for _, variant := range variants {
		if only != "" && variant.Code != only {
			continue
		}
		found = true
		for _, page := range pages.RoutesFor(variant) {
			fmt.Fprintf(tw, "%s\t%s\t%s%s\t%s\t%s\n", variant.Code, variant.Direction, base, page.Path, page.Code, page.Template)
		}
	}
	if only != "" && !found {
		return fmt.Errorf("%w: %q", shell.ErrUnknownVariant, only)
	}
	return tw.Flush()
}

type variantsCmd struct {
	Validate variantsValidateCmd `cmd:"" help:"Validate every variant YAML file in a directory."`
}

type variantsValidateCmd struct {
	Dir string `arg:"" type:"existingdir" help:"Directory holding variant YAML files."`
}

func (cmd *variantsValidateCmd) Run(_ context.Context) error {
	return validateVariants(os.Stdout, cmd.Dir)
}

func validateVariants(out io.Writer, dir string) error {
	variants, err := shell.LoadVariants(os.DirFS(dir), ".")
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		return fmt.Errorf("no variant files found in %s", dir)
	}
	for _, variant := range variants {
		fmt.Fprintf(out, "✓ %s (%s, %s, %d menu items)\n", variant.Code, variant.Locale, variant.Direction, len(variant.Menu))
	}
	return nil
}
