// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ocr-flagger/internal/textcheck"
	"github.com/pdiddy/ocr-flagger/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Report whether PDF files contain extractable text",
	Long: `Check inspects each file and prints one of:

  text        at least one page has extractable text
  no-text     the document has no text layer (e.g. an image-only scan)
  unreadable  the file could not be opened or parsed as a PDF

Nothing is renamed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Int("max-pages", 0, "inspect at most this many pages per file (0 = all)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	if !cmd.Flags().Changed("max-pages") {
		maxPages = viper.GetInt("max_pages")
	}

	checker := textcheck.New(types.CheckConfig{MaxPages: maxPages}, logger)
	out := cmd.OutOrStdout()
	for _, path := range args {
		fmt.Fprintf(out, "%-10s  %s\n", checker.Detect(path), path)
	}

	stats := checker.Stats()
	fmt.Fprintf(out, "\n%d checked: %d with text, %d without text, %d unreadable\n",
		stats.Checked, stats.WithText, stats.NoText, stats.Unreadable)
	return nil
}
