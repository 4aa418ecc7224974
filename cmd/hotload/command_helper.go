package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/hotload/internal/infrastructure/container"
	"github.com/reglet-dev/hotload/internal/infrastructure/system"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with config loading and container
// initialization. The container is closed when the handler returns.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger := slog.Default()

		cfg, err := loadConfig(cfgFile, viper.GetViper())
		if err != nil {
			return err
		}

		c, err := container.New(cmd.Context(), container.Options{
			Config:  cfg,
			Logger:  logger,
			Verbose: verbose,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer func() {
			if cerr := c.Close(context.Background()); cerr != nil {
				logger.Warn("failed to shut down cleanly", "error", cerr)
			}
		}()

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
		}
		return handler(ctx, cmd, args)
	}
}

// loadConfig reads the config file and applies flag and environment
// overrides on top.
func loadConfig(path string, v *viper.Viper) (*system.Config, error) {
	if path == "" {
		path = system.DefaultConfigFile
	}
	cfg, err := system.NewConfigLoader().Load(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, v)
	return cfg, nil
}

func applyOverrides(cfg *system.Config, v *viper.Viper) {
	if v.IsSet("root") {
		root := v.GetString("root")
		cfg.Loader.RootPackage = &root
	}
	if dirs := v.GetStringSlice("source"); v.IsSet("source") && len(dirs) > 0 {
		cfg.Sources = make([]system.SourceConfig, 0, len(dirs))
		for _, dir := range dirs {
			cfg.Sources = append(cfg.Sources, system.SourceConfig{Kind: system.SourceKindFS, Path: dir})
		}
	}
	if suffix := v.GetString("suffix"); v.IsSet("suffix") && suffix != "" {
		cfg.Loader.Suffix = suffix
	}
	if v.IsSet("memory-limit") {
		cfg.Wasm.MemoryLimitMB = v.GetInt("memory-limit")
	}
}
