package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// TableFormatter formats reports as a human-readable table.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true,
	}
}

// colorize returns the string wrapped in ANSI color codes if enabled.
func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

// Format writes the report as a table.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) Format(report *Report) error {
	fmt.Fprintf(f.writer, "Generation: %s (#%d)\n", f.colorize(report.Generation, colorBold), report.Generations)
	fmt.Fprintf(f.writer, "Resolved: %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(f.writer)

	if len(report.Modules) > 0 {
		w := tabwriter.NewWriter(f.writer, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MODULE\tORIGIN\tDIGEST\tSIZE\tLINKED\tIMPORTS")
		for _, m := range report.Modules {
			linked := f.colorize("no", colorGray)
			if m.Linked {
				linked = f.colorize("yes", colorGreen)
			}
			imports := "-"
			if len(m.Imports) > 0 {
				imports = strings.Join(m.Imports, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", m.Name, m.Origin, shortDigest(m.Digest), m.Size, linked, imports)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, f.colorize("Failures:", colorRed))
		for _, fail := range report.Failures {
			fmt.Fprintf(f.writer, "  %s: %s\n", fail.Name, fail.Error)
		}
	}
	return nil
}

// shortDigest trims "sha256:<hex>" to its algorithm and first 12 hex digits.
func shortDigest(d string) string {
	alg, hex, ok := strings.Cut(d, ":")
	if !ok || len(hex) <= 12 {
		return d
	}
	return alg + ":" + hex[:12]
}
