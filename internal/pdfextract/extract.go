// Package pdfextract converts raw PDF bytes into per-page plain text.
package pdfextract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// MaxFileSize - 50MB hard limit for text extraction.
const MaxFileSize = 50 * 1024 * 1024

// ExtractionError reports that the given bytes could not be parsed as a PDF.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("pdf extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Result holds the ordered page texts and the total page count of a PDF.
type Result struct {
	Pages     []string
	PageCount int
}

// Extractor parses PDF bytes in memory. The zero value is ready to use.
type Extractor struct{}

// Extract returns the trimmed plain text of every page, in order, plus the
// total page count. The bytes are validated with pdfcpu (relaxed mode) before
// any content is read; a document that fails validation aborts with an
// ExtractionError. Individual pages that cannot be decoded yield empty text,
// which is how scanned or image-only pages come through.
func (Extractor) Extract(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, &ExtractionError{Err: fmt.Errorf("empty file")}
	}
	if len(data) > MaxFileSize {
		return Result{}, &ExtractionError{Err: fmt.Errorf("file exceeds size limit of 50MB")}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pageCount, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return Result{}, &ExtractionError{Err: fmt.Errorf("validate pdf: %w", err)}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, &ExtractionError{Err: fmt.Errorf("open pdf: %w", err)}
	}

	pages := make([]string, 0, pageCount)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail text decoding are kept as empty so page
			// numbering stays contiguous.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	// pdfcpu's count is authoritative; pad if the text reader saw fewer pages.
	for len(pages) < pageCount {
		pages = append(pages, "")
	}

	return Result{Pages: pages, PageCount: pageCount}, nil
}
