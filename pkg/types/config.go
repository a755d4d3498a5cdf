// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultMarker is the token appended to the stem of a PDF that carries a
// text layer. Its presence anywhere in a stem also marks the file as done.
const DefaultMarker = "_OCR"

// CheckConfig holds settings for the text-presence checker.
type CheckConfig struct {
	// MaxPages bounds how many pages are inspected per file (0 = all pages).
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// HistoryConfig holds settings for the optional run history database.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables the history.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// FlagConfig groups the settings of a rename run.
type FlagConfig struct {
	CheckConfig `yaml:",inline"`

	// Marker is appended to the stem on rename (default "_OCR").
	Marker string `json:"marker" yaml:"marker"`

	// Recursive descends into subdirectories of the root.
	Recursive bool `json:"recursive" yaml:"recursive"`

	// Workers is the number of concurrent text checks (default 1).
	// Renames are always applied one at a time.
	Workers int `json:"workers" yaml:"workers"`

	// DryRun reports what would be renamed without renaming anything.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// ReportPath, when set, receives a YAML or JSON report of the run.
	ReportPath string `json:"report,omitempty" yaml:"report,omitempty"`

	History HistoryConfig `json:"history" yaml:"history"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c FlagConfig) WithDefaults() FlagConfig {
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxPages < 0 {
		c.MaxPages = 0
	}
	return c
}
