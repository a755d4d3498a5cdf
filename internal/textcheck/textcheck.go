// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textcheck decides whether a PDF carries an extractable text layer.
//
// A PDF produced by OCR software or generated from a text source yields
// non-blank text on at least one page. A pure image scan yields none. Files
// that cannot be opened or parsed are reported as unreadable and are never
// treated as having text.
package textcheck

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/pdiddy/ocr-flagger/pkg/types"
)

// Stats holds diagnostic counters accumulated by a Checker.
type Stats struct {
	Checked    int64 `json:"checked" yaml:"checked"`
	WithText   int64 `json:"with_text" yaml:"with_text"`
	NoText     int64 `json:"no_text" yaml:"no_text"`
	Unreadable int64 `json:"unreadable" yaml:"unreadable"`
}

// Checker inspects PDFs page by page. It is safe for concurrent use.
type Checker struct {
	maxPages int
	logger   *zap.Logger

	checked    atomic.Int64
	withText   atomic.Int64
	noText     atomic.Int64
	unreadable atomic.Int64
}

// New returns a Checker. A nil logger discards diagnostics.
func New(cfg types.CheckConfig, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxPages := cfg.MaxPages
	if maxPages < 0 {
		maxPages = 0
	}
	return &Checker{maxPages: maxPages, logger: logger}
}

// HasExtractableText reports whether the PDF at path has non-blank text on
// any page. Unreadable files report false.
func HasExtractableText(path string) bool {
	return New(types.CheckConfig{}, nil).HasExtractableText(path)
}

// HasExtractableText reports whether Detect finds text.
func (c *Checker) HasExtractableText(path string) bool {
	return c.Detect(path) == types.VerdictText
}

// Detect classifies the PDF at path. It never fails: open and parse errors,
// including panics raised by the PDF reader, become VerdictUnreadable.
func (c *Checker) Detect(path string) types.Verdict {
	found, err := c.scan(path)
	c.checked.Add(1)

	switch {
	case err != nil:
		c.unreadable.Add(1)
		c.logger.Debug("unreadable pdf treated as having no text",
			zap.String("path", path), zap.Error(err))
		return types.VerdictUnreadable
	case found:
		c.withText.Add(1)
		return types.VerdictText
	default:
		c.noText.Add(1)
		return types.VerdictNoText
	}
}

// Stats returns a snapshot of the counters.
func (c *Checker) Stats() Stats {
	return Stats{
		Checked:    c.checked.Load(),
		WithText:   c.withText.Load(),
		NoText:     c.noText.Load(),
		Unreadable: c.unreadable.Load(),
	}
}

func (c *Checker) scan(path string) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			found = false
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	n := r.NumPage()
	if c.maxPages > 0 && n > c.maxPages {
		n = c.maxPages
	}

	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return false, fmt.Errorf("reading page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			return true, nil
		}
	}
	return false, nil
}
