package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/hotload/internal/domain/values"
	"github.com/reglet-dev/hotload/internal/infrastructure/sources/oci"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPublishCmd())
}

func newPublishCmd() *cobra.Command {
	var (
		plainHTTP bool
		suffix    string
	)

	cmd := &cobra.Command{
		Use:   "publish REFERENCE DIR",
		Short: "Publish a module directory as an OCI artifact",
		Long: `Publish pushes every module file below DIR as one layer of an OCI artifact
and tags it with REFERENCE. An oci source pointing at the same reference
serves the modules; re-publishing the tag and reloading picks up changes.`,
		Example: `  hotload publish localhost:5000/acme/modules:dev ./modules --plain-http`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectModuleFiles(args[1], suffix)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no %s files found in %s", suffix, args[1])
			}

			desc, err := oci.PublishRemote(cmd.Context(), args[0], plainHTTP, files)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d modules to %s (%s)\n", len(files), args[0], desc.Digest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plainHTTP, "plain-http", false, "Use HTTP instead of HTTPS")
	cmd.Flags().StringVar(&suffix, "suffix", values.DefaultSuffix, "Module file suffix")
	return cmd
}

// collectModuleFiles reads every file ending in suffix below dir, keyed by
// its slash-separated path relative to dir.
func collectModuleFiles(dir, suffix string) (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		//nolint:gosec // G304: walking a user-provided directory
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect modules from %s: %w", dir, err)
	}
	return files, nil
}
