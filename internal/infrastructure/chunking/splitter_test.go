package chunking

import (
	"strings"
	"testing"
)

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func legalSampleText() string {
	var b strings.Builder
	sentences := []string{
		"The landlord may not evict the tenant before the expiry of the tenancy period.",
		"A notice served through the notary public is required twelve months in advance.",
		"The rent may only be increased in accordance with the index published by the authority.",
		"Disputes between the parties are settled by the rental disputes settlement centre.",
		"The tenant shall pay the agreed rent on the dates specified in the contract.",
	}
	for i := 0; i < 8; i++ {
		for _, s := range sentences {
			b.WriteString(s)
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestSentenceSplitterChunksAreOrderedSubstringsCoveringText(t *testing.T) {
	text := legalSampleText()
	s := NewSentenceSplitter(200, 40, 0)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	pos := 0
	lastEnd := 0
	for i, chunk := range chunks {
		idx := strings.Index(text[pos:], chunk)
		if idx < 0 {
			t.Fatalf("chunk %d is not a substring at or after position %d: %q", i, pos, chunk)
		}
		start := pos + idx
		if start > lastEnd {
			t.Fatalf("gap between chunk %d start (%d) and previous end (%d)", i, start, lastEnd)
		}
		lastEnd = start + len(chunk)
		pos = start + 1
	}

	if normalizeSpace(text[lastEnd:]) != "" {
		t.Fatalf("text tail not covered: %q", text[lastEnd:])
	}
}

func TestSentenceSplitterRespectsChunkSize(t *testing.T) {
	s := NewSentenceSplitter(200, 40, 0)
	for i, chunk := range s.Split(legalSampleText()) {
		if n := len([]rune(chunk)); n > 200 {
			t.Fatalf("chunk %d exceeds size: %d runes", i, n)
		}
	}
}

func TestSentenceSplitterPrefersSentenceBoundaries(t *testing.T) {
	text := legalSampleText()
	s := NewSentenceSplitter(200, 40, 0)

	chunks := s.Split(text)
	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, ".") {
			t.Fatalf("chunk %d does not end at a sentence boundary: %q", i, chunk)
		}
	}
}

func TestSentenceSplitterIsDeterministic(t *testing.T) {
	text := legalSampleText()
	s := NewSentenceSplitter(300, 60, 50)

	first := s.Split(text)
	second := s.Split(text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSentenceSplitterDropsShortChunks(t *testing.T) {
	s := NewSentenceSplitter(100, 0, 50)
	chunks := s.Split("Page 7\n")
	if len(chunks) != 0 {
		t.Fatalf("expected stray header to be dropped, got %+v", chunks)
	}
}

func TestSentenceSplitterShortTextSingleChunk(t *testing.T) {
	s := NewSentenceSplitter(1000, 200, 0)
	text := "A single short clause without a terminator"
	chunks := s.Split(text)
	if len(chunks) != 1 || chunks[0] != text {
		t.Fatalf("expected the remainder as one chunk, got %+v", chunks)
	}
}

func TestSentenceSplitterOverlapCarriesContext(t *testing.T) {
	text := legalSampleText()
	s := NewSentenceSplitter(200, 40, 0)

	chunks := s.Split(text)
	for i := 1; i < len(chunks); i++ {
		head := []rune(chunks[i])
		probe := string(head[:10])
		if !strings.Contains(chunks[i-1], probe) {
			t.Fatalf("chunk %d does not overlap its predecessor: head %q", i, probe)
		}
	}
}

func TestFixedSplitterReconstructsText(t *testing.T) {
	text := legalSampleText()
	s := NewFixedSplitter(120)

	chunks := s.Split(text)
	joined := strings.Join(chunks, " ")
	if normalizeSpace(joined) != normalizeSpace(text) {
		t.Fatalf("fixed chunks do not reconstruct the text")
	}
}

func TestFixedSplitterEmptyInput(t *testing.T) {
	s := NewFixedSplitter(0)
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
	if s.ChunkSize != 500 {
		t.Fatalf("expected default chunk size 500, got %d", s.ChunkSize)
	}
}

func TestNewSentenceSplitterNormalizesBadOverlap(t *testing.T) {
	s := NewSentenceSplitter(100, 150, 50)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("overlap must stay below chunk size, got %d/%d", s.Overlap, s.ChunkSize)
	}
}
