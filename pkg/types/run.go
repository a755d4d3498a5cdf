// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunSummary describes one completed rename run for reports and history.
type RunSummary struct {
	// ID identifies the run (a UUID assigned when it is recorded).
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Root is the directory that was scanned.
	Root string `json:"root" yaml:"root"`

	Recursive bool `json:"recursive" yaml:"recursive"`
	DryRun    bool `json:"dry_run" yaml:"dry_run"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Renamed lists the renames in enumeration order.
	Renamed  []RenameRecord `json:"renamed" yaml:"renamed"`
	Failures []FileFailure  `json:"failures,omitempty" yaml:"failures,omitempty"`

	AlreadyMarked int `json:"already_marked" yaml:"already_marked"`
	NoText        int `json:"no_text" yaml:"no_text"`
	Unreadable    int `json:"unreadable" yaml:"unreadable"`
}
