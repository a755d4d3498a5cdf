// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ocr-flagger/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show runs recorded in the history database",
	Long: `History lists recent runs recorded with "rename --history", newest
first. Given a run ID it lists that run's renames with the checksum of each
renamed file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("db", "", "history database (default: history.path from config)")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("history.path")
	}
	if path == "" {
		return fmt.Errorf("no history database: pass --db or set history.path")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		renames, err := store.Renames(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, renames)
		}
		formatRenames(out, renames)
		return nil
	}

	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, runs)
	}
	formatRuns(out, runs)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRuns(w io.Writer, runs []history.RunEntry) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-7s  %-7s  %-7s  %s\n",
		"Run", "Started", "Renamed", "NoText", "Failed", "Root")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		root := r.Root
		if r.Recursive {
			root += " (recursive)"
		}
		if r.DryRun {
			root += " (dry run)"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-7d  %-7d  %-7d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Renamed, r.NoText+r.Unreadable, r.Failed, root)
	}
}

func formatRenames(w io.Writer, renames []history.RenameEntry) {
	if len(renames) == 0 {
		fmt.Fprintln(w, "No renames recorded for this run.")
		return
	}
	for _, r := range renames {
		sum := r.Checksum
		if sum == "" {
			sum = "-"
		}
		fmt.Fprintf(w, "%3d  %-16s  %s -> %s  (%s)\n", r.Seq, sum, r.OldName, r.NewName, r.Dir)
	}
}
