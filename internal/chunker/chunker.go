// Package chunker splits normalized page text into overlapping fixed-size
// windows suitable for embedding.
package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the target window size in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is how many characters consecutive windows share.
	DefaultOverlap = 200
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Split produces an ordered sequence of non-empty chunks from text.
//
// All whitespace runs are collapsed to single spaces and the result trimmed
// before windowing. A window of chunkSize characters slides forward by
// chunkSize-overlap per step; the last window ends at the end of the text.
// Chunks that are empty after trimming are dropped. Empty or whitespace-only
// input yields no chunks; input shorter than chunkSize yields exactly one.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	// The advance step must stay positive or the window never moves.
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 10
	}

	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if cleaned == "" {
		return nil
	}

	runes := []rune(cleaned)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

// SplitDefault splits text with the default window size and overlap.
func SplitDefault(text string) []string {
	return Split(text, DefaultChunkSize, DefaultOverlap)
}
