package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/reglet-dev/hotload/internal/infrastructure/output"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	var (
		format string
		link   bool
	)

	cmd := &cobra.Command{
		Use:   "watch NAME...",
		Short: "Reload on change and re-resolve modules until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: withContainer(func(cc *CommandContext, _ *cobra.Command, args []string) error {
			formatter, err := output.NewFormatterFactory().Create(format, os.Stdout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cc.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			render := func(ctx context.Context) error {
				report := buildReport(ctx, cc.Container, args, link)
				if err := formatter.Format(report); err != nil {
					return err
				}
				for _, f := range report.Failures {
					cc.Logger.Warn("module did not resolve", "module", f.Name, "error", f.Error)
				}
				return nil
			}

			reload := func(ctx context.Context) error {
				gen, err := cc.Container.Reloader().Reload(ctx)
				if gen == nil {
					return err
				}
				if err != nil {
					cc.Logger.Warn("reloaded with errors", "error", err)
				}
				cc.Logger.Info("reloaded", "generation", gen.ID())
				return render(ctx)
			}

			triggers, err := cc.Container.Triggers(reload)
			if err != nil {
				return err
			}
			if err := render(ctx); err != nil {
				return err
			}
			cc.Logger.Info("watching for changes", "roots", cc.Container.WatchRoots())

			g, gctx := errgroup.WithContext(ctx)
			for _, t := range triggers {
				g.Go(func() error { return t.Run(gctx) })
			}
			return g.Wait()
		}),
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&link, "link", false, "Link resolved modules")
	return cmd
}
