package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "hotload",
	Short: "Child-first, hot-reloading WebAssembly module loader",
	Long: `hotload resolves dotted module names to compiled WebAssembly modules.
Modules inside the configured root package are loaded child-first from the
configured sources and replaced as a whole on every reload; everything else
is delegated to a long-lived parent chain.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./hotload.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.String("root", "", "root package the loader is authoritative for (overrides loader.root_package)")
	flags.StringSlice("source", nil, "module directory, repeatable (replaces configured sources)")
	flags.String("suffix", "", "resource suffix (overrides loader.suffix)")
	flags.Int("memory-limit", 0, "wasm memory limit in MB, -1 for unlimited (overrides wasm.memory_limit_mb)")

	for _, name := range []string{"root", "source", "suffix", "memory-limit"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig wires HOTLOAD_* environment variables into viper.
func initConfig() {
	viper.SetEnvPrefix("HOTLOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
