// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rename appends a marker to the names of PDFs that carry a text
// layer. A run enumerates PDFs under a root directory, skips files whose stem
// already contains the marker, asks a TextChecker about the rest, and renames
// the ones with text in place. Per-file problems are recorded and the run
// moves on to the next file.
package rename

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/ocr-flagger/internal/textcheck"
	"github.com/pdiddy/ocr-flagger/pkg/types"
)

var (
	// ErrTargetExists is recorded when the marked name is already taken.
	ErrTargetExists = errors.New("target name already exists")
	// ErrNotDirectory is returned when the root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrInvalidMarker is returned for a marker that would move a file out
	// of its directory.
	ErrInvalidMarker = errors.New("invalid marker")
)

// ValidateMarker rejects markers that are not plain file name text: path
// separators, parent references and NUL bytes.
func ValidateMarker(marker string) error {
	if strings.ContainsAny(marker, `/\`+string(filepath.Separator)+"\x00") || strings.Contains(marker, "..") {
		return fmt.Errorf("%q: %w", marker, ErrInvalidMarker)
	}
	return nil
}

// TextChecker classifies a PDF by its text layer. *textcheck.Checker
// implements it.
type TextChecker interface {
	Detect(path string) types.Verdict
}

// Result holds the outcome of a rename run.
type Result struct {
	Renamed    []types.RenameRecord `json:"renamed" yaml:"renamed"`
	Failures   []types.FileFailure  `json:"failures,omitempty" yaml:"failures,omitempty"`
	Marked     int                  `json:"already_marked" yaml:"already_marked"`
	NoText     int                  `json:"no_text" yaml:"no_text"`
	Unreadable int                  `json:"unreadable" yaml:"unreadable"`
}

// Total returns the number of entries the run accounted for.
func (r Result) Total() int {
	return len(r.Renamed) + r.Marked + r.NoText + r.Unreadable + len(r.Failures)
}

// HasFailures reports whether any file or directory could not be processed.
func (r Result) HasFailures() bool {
	return len(r.Failures) > 0
}

// Renamer runs rename passes. Construct it with New.
type Renamer struct {
	checker TextChecker
	marker  string
	workers int
	dryRun  bool
	w       io.Writer
	logger  *zap.Logger
}

// New returns a Renamer that reports per-file status lines to w. A nil w
// or logger discards the corresponding output.
func New(checker TextChecker, cfg types.FlagConfig, w io.Writer, logger *zap.Logger) *Renamer {
	cfg = cfg.WithDefaults()
	if w == nil {
		w = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renamer{
		checker: checker,
		marker:  cfg.Marker,
		workers: cfg.Workers,
		dryRun:  cfg.DryRun,
		w:       w,
		logger:  logger,
	}
}

// RenameOCRdPDFs renames every unmarked PDF with a text layer under root,
// descending into subdirectories when recursive is set, and returns the
// renames in enumeration order. Files that could not be renamed are left out
// of the result and are not reported; use Renamer.Run to get them as
// Result.Failures.
func RenameOCRdPDFs(root string, recursive bool) ([]types.RenameRecord, error) {
	r := New(textcheck.New(types.CheckConfig{}, nil), types.FlagConfig{}, nil, nil)
	res, err := r.Run(context.Background(), root, recursive)
	return res.Renamed, err
}

// Run performs one pass over root. The returned error is non-nil only when
// the marker is invalid, root is not a usable directory or ctx is cancelled;
// everything else is recorded in Result.Failures.
func (r *Renamer) Run(ctx context.Context, root string, recursive bool) (Result, error) {
	if err := ValidateMarker(r.marker); err != nil {
		return Result{}, err
	}
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return Result{}, fmt.Errorf("reading root %s: %w", root, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("root %s: %w", root, ErrNotDirectory)
	}

	r.logger.Debug("scan started",
		zap.String("root", root), zap.Bool("recursive", recursive), zap.Bool("dry_run", r.dryRun))

	var res Result
	files, failures, err := enumerate(ctx, root, recursive)
	if err != nil {
		return res, err
	}
	for _, f := range failures {
		r.fail(&res, root, f.Path, f.Op, errors.New(f.Err))
	}

	var pending []string
	for _, f := range files {
		if !strings.Contains(f.stem, r.marker) {
			pending = append(pending, f.path())
		}
	}

	verdicts, err := r.check(ctx, pending)
	if err != nil {
		return res, err
	}

	next := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rel := relPath(root, f.path())

		if strings.Contains(f.stem, r.marker) {
			fmt.Fprintf(r.w, "skipped:    %s (already marked)\n", rel)
			res.Marked++
			continue
		}

		verdict := verdicts[next]
		next++

		switch verdict {
		case types.VerdictUnreadable:
			fmt.Fprintf(r.w, "unreadable: %s\n", rel)
			res.Unreadable++
			continue
		case types.VerdictNoText:
			fmt.Fprintf(r.w, "no text:    %s\n", rel)
			res.NoText++
			continue
		}

		rec := types.RenameRecord{Dir: f.dir, OldName: f.name, NewName: f.stem + r.marker + f.ext}
		if err := r.apply(rec); err != nil {
			r.fail(&res, root, f.path(), "rename", err)
			continue
		}
		if r.dryRun {
			fmt.Fprintf(r.w, "would rename: %s -> %s\n", rel, rec.NewName)
		} else {
			fmt.Fprintf(r.w, "renamed:    %s -> %s\n", rel, rec.NewName)
		}
		res.Renamed = append(res.Renamed, rec)
	}

	fmt.Fprintf(r.w, "\nSummary: %d renamed, %d already marked, %d without text, %d unreadable, %d failed (total: %d)\n",
		len(res.Renamed), res.Marked, res.NoText, res.Unreadable, len(res.Failures), res.Total())
	r.logger.Debug("scan finished",
		zap.String("root", root), zap.Int("renamed", len(res.Renamed)), zap.Int("failed", len(res.Failures)))
	return res, nil
}

// check runs the checker over paths, concurrently when more than one worker
// is configured. Verdicts line up with paths.
func (r *Renamer) check(ctx context.Context, paths []string) ([]types.Verdict, error) {
	verdicts := make([]types.Verdict, len(paths))

	if r.workers <= 1 {
		for i, p := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			verdicts[i] = r.checker.Detect(p)
		}
		return verdicts, nil
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)
	for i, p := range paths {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdicts[i] = r.checker.Detect(p)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// apply renames rec within its directory. An existing entry at the new name
// is never replaced.
func (r *Renamer) apply(rec types.RenameRecord) error {
	if filepath.Base(rec.NewName) != rec.NewName {
		return fmt.Errorf("%s: %w", rec.NewName, ErrInvalidMarker)
	}
	from := filepath.Join(rec.Dir, rec.OldName)
	to := filepath.Join(rec.Dir, rec.NewName)

	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("%s: %w", rec.NewName, ErrTargetExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", rec.NewName, err)
	}

	if r.dryRun {
		return nil
	}
	if err := os.Rename(from, to); err != nil {
		return err
	}
	r.logger.Debug("renamed", zap.String("from", from), zap.String("to", to))
	return nil
}

func (r *Renamer) fail(res *Result, root, path, op string, err error) {
	fmt.Fprintf(r.w, "failed:     %s (%v)\n", relPath(root, path), err)
	r.logger.Warn("file not processed", zap.String("path", path), zap.String("op", op), zap.Error(err))
	res.Failures = append(res.Failures, types.FileFailure{Path: path, Op: op, Err: err.Error()})
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// Summary copies the outcome of the run into a RunSummary. Callers fill in
// the run metadata (root, flags, timestamps).
func (r Result) Summary() types.RunSummary {
	return types.RunSummary{
		Renamed:       r.Renamed,
		Failures:      r.Failures,
		AlreadyMarked: r.Marked,
		NoText:        r.NoText,
		Unreadable:    r.Unreadable,
	}
}
