// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/ocr-flagger/pkg/types"
)

const pdfExt = ".pdf"

// readDir lists a directory for non-recursive runs. Tests replace it to
// simulate read errors.
var readDir = os.ReadDir

// pdfFile is an enumerated candidate split into stem and extension.
type pdfFile struct {
	dir  string
	name string
	stem string
	ext  string
}

func (f pdfFile) path() string {
	return filepath.Join(f.dir, f.name)
}

// enumerate lists PDF candidates under root in lexical order. Directories
// that cannot be read are returned as failures. Symbolic links to
// directories are never followed. The returned error is ctx's.
func enumerate(ctx context.Context, root string, recursive bool) ([]pdfFile, []types.FileFailure, error) {
	var files []pdfFile
	var failures []types.FileFailure

	if !recursive {
		entries, err := readDir(root)
		if err != nil {
			failures = append(failures, types.FileFailure{Path: root, Op: "walk", Err: err.Error()})
		}
		// ReadDir returns the entries it managed to read alongside the error.
		for _, d := range entries {
			if f, ok := candidate(root, d); ok {
				files = append(files, f)
			}
		}
		return files, failures, ctx.Err()
	}

	// WalkDir does not descend into a root that is itself a symlink, so walk
	// the resolved directory and report paths under the name we were given.
	walkRoot := root
	if info, err := os.Lstat(root); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			walkRoot = resolved
		}
	}

	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			failures = append(failures, types.FileFailure{Path: path, Op: "walk", Err: err.Error()})
			return nil
		}
		if d.IsDir() {
			return nil
		}
		dir := filepath.Dir(path)
		if walkRoot != root {
			if rel, err := filepath.Rel(walkRoot, dir); err == nil {
				dir = filepath.Join(root, rel)
			}
		}
		if f, ok := candidate(dir, d); ok {
			files = append(files, f)
		}
		return nil
	})
	return files, failures, err
}

// candidate reports whether d is a PDF to consider: a regular file, or a
// symlink to one, whose name ends in .pdf in any letter case.
func candidate(dir string, d fs.DirEntry) (pdfFile, bool) {
	name := d.Name()
	if d.IsDir() || !hasPDFExt(name) {
		return pdfFile{}, false
	}
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.Mode().IsRegular() {
			return pdfFile{}, false
		}
	} else if !d.Type().IsRegular() {
		return pdfFile{}, false
	}

	ext := name[len(name)-len(pdfExt):]
	return pdfFile{dir: dir, name: name, stem: strings.TrimSuffix(name, ext), ext: ext}, true
}

// hasPDFExt matches a .pdf suffix case-insensitively. A name made only of
// dots before the extension (".pdf", "..PDF") has no stem and is not a match.
func hasPDFExt(name string) bool {
	if len(name) <= len(pdfExt) || !strings.EqualFold(name[len(name)-len(pdfExt):], pdfExt) {
		return false
	}
	return strings.Trim(name[:len(name)-len(pdfExt)], ".") != ""
}
