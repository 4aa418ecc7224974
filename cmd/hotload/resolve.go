package main

import (
	"context"
	"os"
	"time"

	"github.com/reglet-dev/hotload/internal/domain/entities"
	"github.com/reglet-dev/hotload/internal/infrastructure/container"
	"github.com/reglet-dev/hotload/internal/infrastructure/output"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newResolveCmd())
}

func newResolveCmd() *cobra.Command {
	var (
		format string
		link   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve NAME...",
		Short: "Resolve modules through the loader chain",
		Example: `  hotload resolve com.app.Widget
  hotload resolve com.app.Widget com.lib.Util --link --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			formatter, err := output.NewFormatterFactory().Create(format, os.Stdout)
			if err != nil {
				return err
			}
			report := buildReport(ctx.Context, ctx.Container, args, link)
			if err := formatter.Format(report); err != nil {
				return err
			}
			return report.Err()
		}),
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&link, "link", false, "Link resolved modules")
	return cmd
}

// buildReport resolves names through the current generation.
func buildReport(ctx context.Context, c *container.Container, names []string, link bool) *output.Report {
	reloader := c.Reloader()
	gen := reloader.Current()

	report := &output.Report{
		GeneratedAt: time.Now().UTC(),
		Generations: reloader.Generations(),
	}
	if gen != nil {
		report.Generation = gen.ID()
	}

	for _, name := range names {
		m, err := reloader.ResolveModule(ctx, name, link)
		if err != nil {
			report.Failures = append(report.Failures, output.Failure{Name: name, Error: err.Error()})
			continue
		}
		report.Modules = append(report.Modules, output.NewModuleEntry(m, originOf(c, m)))
	}
	return report
}

func originOf(c *container.Container, m *entities.Module) output.Origin {
	if lib := c.Library(); lib != nil && m.LoaderID() == lib.ID() {
		return output.OriginLibrary
	}
	if gen := c.Reloader().Current(); gen != nil && m.LoaderID() == gen.ID() {
		return output.OriginGeneration
	}
	return output.OriginBootstrap
}
