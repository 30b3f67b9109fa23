package textutil

import (
	"strings"
	"testing"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("hello   world\t\tagain")
	if got != "hello world again" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestNormalizePreservesParagraphs(t *testing.T) {
	got := Normalize("first paragraph\n\n  second paragraph  ")
	if got != "first paragraph\nsecond paragraph" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestSplitOverlappingShortText(t *testing.T) {
	chunks := SplitOverlapping("short", 500, 50)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitOverlappingEmpty(t *testing.T) {
	if chunks := SplitOverlapping("", 500, 50); chunks != nil {
		t.Fatalf("expected no chunks for empty input, got %v", chunks)
	}
}

func TestSplitOverlappingCoversTextWithOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 120) // 1200 runes
	size, overlap := 500, 50
	chunks := SplitOverlapping(text, size, overlap)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > size {
			t.Fatalf("chunk %d exceeds size: %d", i, len([]rune(chunk)))
		}
	}
	// Consecutive chunks share the configured overlap.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		if len(prev) == size {
			tail := string(prev[len(prev)-overlap:])
			head := string(cur[:overlap])
			if tail != head {
				t.Fatalf("chunks %d and %d do not overlap", i-1, i)
			}
		}
	}
	// Each chunk sits at its expected offset and the last one reaches the end.
	step := size - overlap
	all := []rune(text)
	for i, chunk := range chunks {
		start := i * step
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		if chunk != string(all[start:end]) {
			t.Fatalf("chunk %d does not match expected window", i)
		}
	}
	if last := chunks[len(chunks)-1]; !strings.HasSuffix(text, last) {
		t.Fatal("final chunk does not reach the end of the text")
	}
}

func TestSplitOverlappingUnicodeSafe(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 100)
	for _, chunk := range SplitOverlapping(text, 50, 10) {
		if !strings.Contains(text, chunk) {
			t.Fatalf("chunk %q is not a substring; rune boundary broken", chunk)
		}
	}
}
