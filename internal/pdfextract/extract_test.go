package pdfextract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	var ex Extractor
	for name, data := range map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("this is not a pdf"),
		"truncated": []byte("%PDF-1.7\n"),
	} {
		_, err := ex.Extract(data)
		if err == nil {
			t.Errorf("%s: expected an error", name)
			continue
		}
		var extErr *ExtractionError
		if !errors.As(err, &extErr) {
			t.Errorf("%s: error %v is not an ExtractionError", name, err)
		}
	}
}

func TestExtractRejectsOversizedInput(t *testing.T) {
	var ex Extractor
	_, err := ex.Extract(make([]byte, MaxFileSize+1))
	if err == nil || !strings.Contains(err.Error(), "size limit") {
		t.Fatalf("err = %v, want size limit error", err)
	}
}
