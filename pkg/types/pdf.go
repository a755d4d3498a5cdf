// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Verdict is the outcome of inspecting a PDF for a text layer.
type Verdict string

const (
	// VerdictText means at least one page yielded non-blank text.
	VerdictText Verdict = "text"
	// VerdictNoText means the document parsed but no page had text.
	VerdictNoText Verdict = "no-text"
	// VerdictUnreadable means the file could not be opened or parsed.
	// Callers treat it like VerdictNoText.
	VerdictUnreadable Verdict = "unreadable"
)

// RenameRecord pairs a file's name before and after the marker was appended.
type RenameRecord struct {
	// Dir is the directory holding the file; the rename never leaves it.
	Dir string `json:"dir" yaml:"dir"`

	// OldName is the original base name (e.g. "a.pdf").
	OldName string `json:"old_name" yaml:"old_name"`

	// NewName is the base name after renaming (e.g. "a_OCR.pdf").
	NewName string `json:"new_name" yaml:"new_name"`
}

// String renders the record the way it is shown to users.
func (r RenameRecord) String() string {
	return r.OldName + " -> " + r.NewName
}

// FileFailure describes a file or directory the renamer could not process.
type FileFailure struct {
	// Path is the full path of the entry that failed.
	Path string `json:"path" yaml:"path"`

	// Op names the step that failed ("walk", "rename").
	Op string `json:"op" yaml:"op"`

	// Err is the error message.
	Err string `json:"error" yaml:"error"`
}
