// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders rename runs for people and writes machine-readable
// run reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ocr-flagger/internal/textcheck"
	"github.com/pdiddy/ocr-flagger/pkg/types"
)

// Document is the content of a written report.
type Document struct {
	types.RunSummary `yaml:",inline"`

	// Checker holds the text checker's diagnostic counters for the run.
	Checker textcheck.Stats `json:"checker" yaml:"checker"`
}

// Format writes the result display: the renamed files one per line, or a
// note that nothing was renamed.
func Format(w io.Writer, renamed []types.RenameRecord) {
	if len(renamed) == 0 {
		fmt.Fprintln(w, "No OCR'd PDFs found to rename.")
		return
	}
	fmt.Fprintln(w, "Renamed files:")
	for _, r := range renamed {
		fmt.Fprintln(w, r.String())
	}
}

// Write stores doc at path as JSON when the extension is .json and as YAML
// otherwise.
func Write(path string, doc Document) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
