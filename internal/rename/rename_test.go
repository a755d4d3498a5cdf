// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/ocr-flagger/internal/pdftest"
	"github.com/pdiddy/ocr-flagger/internal/textcheck"
	"github.com/pdiddy/ocr-flagger/pkg/types"
)

// mockChecker is a testify mock for TextChecker.
type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) Detect(path string) types.Verdict {
	args := m.Called(path)
	return args.Get(0).(types.Verdict)
}

// listNames returns the sorted base names of regular files in dir.
func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func newRenamer(cfg types.FlagConfig, w io.Writer) *Renamer {
	return New(textcheck.New(cfg.CheckConfig, nil), cfg, w, nil)
}

func TestRunExample(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "searchable text")
	pdftest.Write(t, filepath.Join(dir, "b.pdf"), "")
	pdftest.Write(t, filepath.Join(dir, "c_OCR.pdf"), "already done")

	var log bytes.Buffer
	res, err := newRenamer(types.FlagConfig{}, &log).Run(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, []types.RenameRecord{{Dir: dir, OldName: "a.pdf", NewName: "a_OCR.pdf"}}, res.Renamed)
	assert.Equal(t, 1, res.Marked)
	assert.Equal(t, 1, res.NoText)
	assert.Equal(t, 0, res.Unreadable)
	assert.False(t, res.HasFailures())
	assert.Equal(t, 3, res.Total())
	assert.Equal(t, []string{"a_OCR.pdf", "b.pdf", "c_OCR.pdf"}, listNames(t, dir))

	out := log.String()
	assert.Contains(t, out, "renamed:    a.pdf -> a_OCR.pdf")
	assert.Contains(t, out, "skipped:    c_OCR.pdf (already marked)")
	assert.Contains(t, out, "no text:    b.pdf")
	assert.Contains(t, out, "Summary: 1 renamed, 1 already marked, 1 without text, 0 unreadable, 0 failed (total: 3)")
}

func TestRenameOCRdPDFs(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "searchable text")
	pdftest.Write(t, filepath.Join(dir, "b.pdf"), "")

	got, err := RenameOCRdPDFs(dir, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.pdf", got[0].OldName)
	assert.Equal(t, "a_OCR.pdf", got[0].NewName)
	assert.Equal(t, "a.pdf -> a_OCR.pdf", got[0].String())
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	pdftest.Write(t, filepath.Join(dir, "one.pdf"), "x")
	pdftest.Write(t, filepath.Join(sub, "two.PDF"), "y")

	first, err := RenameOCRdPDFs(dir, true)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := RenameOCRdPDFs(dir, true)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, []string{"one_OCR.pdf"}, listNames(t, dir))
	assert.Equal(t, []string{"two_OCR.PDF"}, listNames(t, sub))
}

func TestRunRecursiveFlag(t *testing.T) {
	setup := func(t *testing.T) (root, nested string) {
		root = t.TempDir()
		nested = filepath.Join(root, "x", "y")
		require.NoError(t, os.MkdirAll(nested, 0o755))
		pdftest.Write(t, filepath.Join(root, "top.pdf"), "top")
		pdftest.Write(t, filepath.Join(nested, "deep.pdf"), "deep")
		return root, nested
	}

	t.Run("non-recursive leaves subdirectories alone", func(t *testing.T) {
		root, nested := setup(t)
		checker := &mockChecker{}
		checker.On("Detect", filepath.Join(root, "top.pdf")).Return(types.VerdictText).Once()

		res, err := New(checker, types.FlagConfig{}, nil, nil).Run(context.Background(), root, false)
		require.NoError(t, err)

		assert.Len(t, res.Renamed, 1)
		assert.Equal(t, []string{"deep.pdf"}, listNames(t, nested))
		checker.AssertExpectations(t)
		checker.AssertNotCalled(t, "Detect", filepath.Join(nested, "deep.pdf"))
	})

	t.Run("recursive renames nested files", func(t *testing.T) {
		root, nested := setup(t)
		res, err := newRenamer(types.FlagConfig{}, nil).Run(context.Background(), root, true)
		require.NoError(t, err)

		require.Len(t, res.Renamed, 2)
		assert.Equal(t, []string{"deep_OCR.pdf"}, listNames(t, nested))
		assert.Equal(t, []string{"top_OCR.pdf"}, listNames(t, root))
		// Lexical walk order: "top.pdf" sorts before directory "x".
		assert.Equal(t, root, res.Renamed[0].Dir)
		assert.Equal(t, nested, res.Renamed[1].Dir)
	})
}

func TestRunExtensionCase(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lower.pdf", "upper.PDF", "mixed.Pdf"} {
		pdftest.Write(t, filepath.Join(dir, name), "text")
	}
	pdftest.Write(t, filepath.Join(dir, "notes.txt"), "text")
	pdftest.Write(t, filepath.Join(dir, "archive.pdf.bak"), "text")

	res, err := newRenamer(types.FlagConfig{}, nil).Run(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Len(t, res.Renamed, 3)
	assert.Equal(t,
		[]string{"archive.pdf.bak", "lower_OCR.pdf", "mixed_OCR.Pdf", "notes.txt", "upper_OCR.PDF"},
		listNames(t, dir))
}

func TestRunMarkerGuard(t *testing.T) {
	dir := t.TempDir()
	names := []string{"report_OCR.pdf", "_OCR_scan.pdf", "mid_OCR_v2.pdf", "lower_ocr.pdf"}

	checker := &mockChecker{}
	checker.On("Detect", filepath.Join(dir, "lower_ocr.pdf")).Return(types.VerdictText).Once()
	for _, name := range names {
		pdftest.WriteRaw(t, filepath.Join(dir, name), []byte("unused"))
	}

	res, err := New(checker, types.FlagConfig{}, nil, nil).Run(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Marked)
	require.Len(t, res.Renamed, 1)
	assert.Equal(t, "lower_ocr_OCR.pdf", res.Renamed[0].NewName)
	checker.AssertExpectations(t)
	checker.AssertNumberOfCalls(t, "Detect", 1)
}

func TestRunUnreadable(t *testing.T) {
	dir := t.TempDir()
	pdftest.WriteRaw(t, filepath.Join(dir, "broken.pdf"), []byte("not really a pdf"))

	var log bytes.Buffer
	res, err := newRenamer(types.FlagConfig{}, &log).Run(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Empty(t, res.Renamed)
	assert.Equal(t, 1, res.Unreadable)
	assert.Contains(t, log.String(), "unreadable: broken.pdf")
	assert.Equal(t, []string{"broken.pdf"}, listNames(t, dir))
}

func TestRunCollision(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "new text")
	pdftest.WriteRaw(t, filepath.Join(dir, "a_OCR.pdf"), []byte("existing"))
	pdftest.Write(t, filepath.Join(dir, "b.pdf"), "more text")

	core, logs := observer.New(zapcore.WarnLevel)
	var log bytes.Buffer
	r := New(textcheck.New(types.CheckConfig{}, nil), types.FlagConfig{}, &log, zap.New(core))

	res, err := r.Run(context.Background(), dir, false)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, filepath.Join(dir, "a.pdf"), res.Failures[0].Path)
	assert.Equal(t, "rename", res.Failures[0].Op)
	assert.True(t, res.HasFailures())

	require.Len(t, res.Renamed, 1, "scan continues after a failed rename")
	assert.Equal(t, "b_OCR.pdf", res.Renamed[0].NewName)

	existing, err := os.ReadFile(filepath.Join(dir, "a_OCR.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(existing), "existing target must not be overwritten")

	assert.Contains(t, log.String(), "failed:     a.pdf")
	assert.Equal(t, 1, logs.FilterMessage("file not processed").Len())
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "text")

	var log bytes.Buffer
	res, err := newRenamer(types.FlagConfig{DryRun: true}, &log).Run(context.Background(), dir, false)
	require.NoError(t, err)

	require.Len(t, res.Renamed, 1)
	assert.Equal(t, "a_OCR.pdf", res.Renamed[0].NewName)
	assert.Equal(t, []string{"a.pdf"}, listNames(t, dir))
	assert.Contains(t, log.String(), "would rename: a.pdf -> a_OCR.pdf")
}

func TestRunCustomMarker(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "text")
	pdftest.Write(t, filepath.Join(dir, "b-searchable.pdf"), "text")

	res, err := newRenamer(types.FlagConfig{Marker: "-searchable"}, nil).Run(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Marked)
	assert.Equal(t, []string{"a-searchable.pdf", "b-searchable.pdf"}, listNames(t, dir))
}

func TestRunParallelMatchesSequential(t *testing.T) {
	build := func(t *testing.T) string {
		dir := t.TempDir()
		for i := 0; i < 12; i++ {
			text := ""
			if i%3 != 0 {
				text = "page"
			}
			pdftest.Write(t, filepath.Join(dir, string(rune('a'+i))+".pdf"), text)
		}
		return dir
	}

	seqDir, parDir := build(t), build(t)

	seq, err := newRenamer(types.FlagConfig{Workers: 1}, nil).Run(context.Background(), seqDir, false)
	require.NoError(t, err)
	par, err := newRenamer(types.FlagConfig{Workers: 4}, nil).Run(context.Background(), parDir, false)
	require.NoError(t, err)

	require.Len(t, par.Renamed, len(seq.Renamed))
	for i := range seq.Renamed {
		assert.Equal(t, seq.Renamed[i].OldName, par.Renamed[i].OldName)
		assert.Equal(t, seq.Renamed[i].NewName, par.Renamed[i].NewName)
	}
	assert.Equal(t, seq.NoText, par.NoText)
	assert.Equal(t, listNames(t, seqDir), listNames(t, parDir))
}

func TestRunInvalidRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.pdf")
	pdftest.Write(t, file, "x")

	_, err := newRenamer(types.FlagConfig{}, nil).Run(context.Background(), file, false)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = newRenamer(types.FlagConfig{}, nil).Run(context.Background(), filepath.Join(dir, "missing"), true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newRenamer(types.FlagConfig{}, nil).Run(ctx, dir, true)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, res.Renamed)
	assert.Equal(t, []string{"a.pdf"}, listNames(t, dir))
}

func TestRunSkipsDirectoriesNamedPDF(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))
	pdftest.Write(t, filepath.Join(dir, "folder.pdf", "inner.pdf"), "x")

	res, err := newRenamer(types.FlagConfig{}, nil).Run(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Empty(t, res.Renamed)
	assert.Equal(t, 0, res.Total())
}

func TestRunDoesNotFollowDirectorySymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	pdftest.Write(t, filepath.Join(outside, "elsewhere.pdf"), "x")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	// A cycle back to the root.
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))
	pdftest.Write(t, filepath.Join(root, "here.pdf"), "x")

	res, err := newRenamer(types.FlagConfig{}, nil).Run(context.Background(), root, true)
	require.NoError(t, err)

	require.Len(t, res.Renamed, 1)
	assert.Equal(t, "here_OCR.pdf", res.Renamed[0].NewName)
	assert.Equal(t, []string{"elsewhere.pdf"}, listNames(t, outside))
}

func TestRunSymlinkedRoot(t *testing.T) {
	target := t.TempDir()
	pdftest.Write(t, filepath.Join(target, "doc.pdf"), "x")
	link := filepath.Join(t.TempDir(), "root-link")
	require.NoError(t, os.Symlink(target, link))

	res, err := newRenamer(types.FlagConfig{}, nil).Run(context.Background(), link, true)
	require.NoError(t, err)

	require.Len(t, res.Renamed, 1)
	assert.Equal(t, link, res.Renamed[0].Dir)
	assert.Equal(t, []string{"doc_OCR.pdf"}, listNames(t, target))
}

func TestRunUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Mkdir(locked, 0o755))
	pdftest.Write(t, filepath.Join(locked, "hidden.pdf"), "x")
	pdftest.Write(t, filepath.Join(root, "visible.pdf"), "x")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	res, err := newRenamer(types.FlagConfig{}, nil).Run(context.Background(), root, true)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "walk", res.Failures[0].Op)
	assert.Equal(t, locked, res.Failures[0].Path)
	require.Len(t, res.Renamed, 1)
	assert.Equal(t, "visible_OCR.pdf", res.Renamed[0].NewName)
}

func TestHasPDFExt(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"doc.pdf", true},
		{"doc.PDF", true},
		{"doc.pDf", true},
		{"a.b.pdf", true},
		{".hidden.pdf", true},
		{"pdf", false},
		{".pdf", false},
		{"...PDF", false},
		{"doc.pdfx", false},
		{"doc_pdf", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasPDFExt(tt.name))
		})
	}
}

func TestRunRejectsMarkerWithPath(t *testing.T) {
	for _, marker := range []string{"/../../escaped", "_OCR/x", `_OCR\x`, "..", "_OCR..", "a\x00b"} {
		t.Run(marker, func(t *testing.T) {
			parent := t.TempDir()
			dir := filepath.Join(parent, "in")
			require.NoError(t, os.Mkdir(dir, 0o755))
			pdftest.Write(t, filepath.Join(dir, "a.pdf"), "text")

			res, err := newRenamer(types.FlagConfig{Marker: marker}, nil).Run(context.Background(), dir, false)
			assert.ErrorIs(t, err, ErrInvalidMarker)
			assert.Empty(t, res.Renamed)
			assert.Equal(t, []string{"a.pdf"}, listNames(t, dir))
			assert.Empty(t, listNames(t, parent))
		})
	}
}

func TestValidateMarker(t *testing.T) {
	tests := []struct {
		marker string
		valid  bool
	}{
		{"_OCR", true},
		{"-searchable", true},
		{" (text)", true},
		{".ocr", true},
		{"/x", false},
		{`x\y`, false},
		{"..", false},
		{"x..y", false},
	}
	for _, tt := range tests {
		err := ValidateMarker(tt.marker)
		if tt.valid {
			assert.NoError(t, err, tt.marker)
		} else {
			assert.ErrorIs(t, err, ErrInvalidMarker, tt.marker)
		}
	}
}

func TestApplyKeepsFileInDirectory(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "in")
	require.NoError(t, os.Mkdir(dir, 0o755))
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "text")

	r := newRenamer(types.FlagConfig{}, nil)
	err := r.apply(types.RenameRecord{Dir: dir, OldName: "a.pdf", NewName: "../escaped.pdf"})
	assert.ErrorIs(t, err, ErrInvalidMarker)
	assert.Equal(t, []string{"a.pdf"}, listNames(t, dir))
	assert.Empty(t, listNames(t, parent))
}

func TestRenameOCRdPDFsOmitsFailedRenames(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "text")
	pdftest.WriteRaw(t, filepath.Join(dir, "a_OCR.pdf"), []byte("existing"))

	got, err := RenameOCRdPDFs(dir, false)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"a.pdf", "a_OCR.pdf"}, listNames(t, dir))
}

func TestRunDirectoryReadError(t *testing.T) {
	dir := t.TempDir()
	pdftest.Write(t, filepath.Join(dir, "a.pdf"), "text")
	pdftest.Write(t, filepath.Join(dir, "b.pdf"), "text")

	orig := readDir
	t.Cleanup(func() { readDir = orig })
	readDir = func(name string) ([]os.DirEntry, error) {
		entries, err := orig(name)
		require.NoError(t, err)
		return entries[:1], errors.New("input/output error")
	}

	var log bytes.Buffer
	res, err := newRenamer(types.FlagConfig{}, &log).Run(context.Background(), dir, false)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "walk", res.Failures[0].Op)
	assert.Equal(t, dir, res.Failures[0].Path)
	assert.Equal(t, "input/output error", res.Failures[0].Err)

	require.Len(t, res.Renamed, 1, "entries read before the error are still processed")
	assert.Equal(t, "a_OCR.pdf", res.Renamed[0].NewName)
	assert.Equal(t, []string{"a_OCR.pdf", "b.pdf"}, listNames(t, dir))
	assert.Contains(t, log.String(), "failed:     . (input/output error)")
}
