// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ocr-flagger/internal/history"
	"github.com/pdiddy/ocr-flagger/internal/rename"
	"github.com/pdiddy/ocr-flagger/internal/report"
	"github.com/pdiddy/ocr-flagger/internal/textcheck"
	"github.com/pdiddy/ocr-flagger/pkg/types"
)

var renameCmd = &cobra.Command{
	Use:   "rename [dir]",
	Short: "Append _OCR to PDFs that contain extractable text",
	Long: `Rename scans dir (default: the current directory) for PDF files and
appends the marker to the name of each one that has text on at least one page.
Names that already contain the marker are skipped without reading the file.

With --recursive, subdirectories are scanned too; symbolic links to
directories are not followed. A file whose new name is already taken is
reported as failed and left as is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRename,
}

func init() {
	f := renameCmd.Flags()
	f.BoolP("recursive", "r", false, "scan subdirectories as well")
	f.BoolP("yes", "y", false, "do not ask for confirmation")
	f.Bool("dry-run", false, "list the renames without performing them")
	f.String("marker", types.DefaultMarker, "marker appended to the file stem")
	f.Int("workers", 1, "number of files checked for text concurrently")
	f.Int("max-pages", 0, "inspect at most this many pages per file (0 = all)")
	f.String("report", "", "write a run report to this file (.json for JSON, YAML otherwise)")
	f.String("history", "", "record the run in this SQLite history database")

	for key, flag := range map[string]string{
		"recursive":    "recursive",
		"yes":          "yes",
		"dry_run":      "dry-run",
		"marker":       "marker",
		"workers":      "workers",
		"max_pages":    "max-pages",
		"report":       "report",
		"history.path": "history",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(renameCmd)
}

// flagConfig reads the run settings from flags, environment and config file.
func flagConfig() types.FlagConfig {
	cfg := types.FlagConfig{
		CheckConfig: types.CheckConfig{MaxPages: viper.GetInt("max_pages")},
		Marker:      viper.GetString("marker"),
		Recursive:   viper.GetBool("recursive"),
		Workers:     viper.GetInt("workers"),
		DryRun:      viper.GetBool("dry_run"),
		ReportPath:  viper.GetString("report"),
		History:     types.HistoryConfig{Path: viper.GetString("history.path")},
	}
	return cfg.WithDefaults()
}

func runRename(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	cfg := flagConfig()
	if err := rename.ValidateMarker(cfg.Marker); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Scanning: %s\n", root)

	if !cfg.DryRun && !viper.GetBool("yes") {
		ok, err := confirm(cmd.InOrStdin(), out, cfg)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	checker := textcheck.New(cfg.CheckConfig, logger)
	renamer := rename.New(checker, cfg, out, logger)

	started := time.Now()
	res, err := renamer.Run(cmd.Context(), root, cfg.Recursive)
	if err != nil {
		return err
	}

	summary := res.Summary()
	summary.Root = root
	summary.Recursive = cfg.Recursive
	summary.DryRun = cfg.DryRun
	summary.StartedAt = started
	summary.FinishedAt = time.Now()

	if cfg.History.Path != "" {
		id, err := recordHistory(cmd, cfg.History.Path, summary)
		if err != nil {
			return err
		}
		summary.ID = id
		fmt.Fprintf(out, "Recorded run %s in %s\n", id, cfg.History.Path)
	}

	if cfg.ReportPath != "" {
		doc := report.Document{RunSummary: summary, Checker: checker.Stats()}
		if err := report.Write(cfg.ReportPath, doc); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", cfg.ReportPath)
	}

	fmt.Fprintln(out)
	report.Format(out, res.Renamed)

	if res.HasFailures() {
		return fmt.Errorf("%d file(s) could not be processed", len(res.Failures))
	}
	return nil
}

func recordHistory(cmd *cobra.Command, path string, summary types.RunSummary) (string, error) {
	store, err := history.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.Record(cmd.Context(), summary)
}

// confirm asks the user to approve the run. Anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, cfg types.FlagConfig) (bool, error) {
	recursive := "No"
	if cfg.Recursive {
		recursive = "Yes"
	}
	fmt.Fprintf(out, "All PDFs that have been OCR'd will have their file name updated with '%s'.\n", cfg.Marker)
	fmt.Fprintf(out, "Run recursively: %s\n", recursive)
	fmt.Fprint(out, "Do you want to continue? [y/N] ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
