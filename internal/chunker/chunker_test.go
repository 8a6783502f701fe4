package chunker

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if got := Split(input, 100, 20); len(got) != 0 {
			t.Errorf("Split(%q) = %v, want no chunks", input, got)
		}
	}
}

func TestSplitCollapsesWhitespace(t *testing.T) {
	got := Split("a\n\n  b\t c", 100, 20)
	if len(got) != 1 || got[0] != "a b c" {
		t.Fatalf("Split = %v, want [%q]", got, "a b c")
	}
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	text := strings.Repeat("x", 50)
	got := Split(text, 100, 20)
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk = %q, want full input", got[0])
	}
}

// alphaText builds a deterministic input with no whitespace so that window
// boundaries are unaffected by trimming.
func alphaText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	return b.String()
}

func TestSplitWindowProperties(t *testing.T) {
	const size, overlap = 100, 20
	text := alphaText(250)
	chunks := Split(text, size, overlap)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > size {
			t.Errorf("chunk %d has length %d > %d", i, len(c), size)
		}
	}
	// Consecutive chunks share exactly `overlap` characters.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-overlap:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not start with the last %d chars of chunk %d", i, overlap, i-1)
		}
	}
	// Dropping each chunk's overlapping prefix reconstructs the input.
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		rebuilt += chunks[i][overlap:]
	}
	if rebuilt != text {
		t.Errorf("reconstruction mismatch: got %d chars, want %d", len(rebuilt), len(text))
	}
}

func TestSplitClampsExcessiveOverlap(t *testing.T) {
	text := alphaText(55)
	// overlap >= chunkSize must not loop forever; the clamp keeps the window
	// advancing and the full input covered.
	chunks := Split(text, 10, 15)
	if len(chunks) == 0 {
		t.Fatal("no chunks returned")
	}
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		rebuilt += chunks[i][1:]
	}
	if rebuilt != text {
		t.Errorf("reconstruction mismatch after clamp: got %q", rebuilt)
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Errorf("last chunk %q is not a suffix of the input", last)
	}
}
