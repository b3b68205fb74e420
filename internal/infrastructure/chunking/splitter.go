package chunking

import "strings"

// SentenceSplitter advances a fixed-size window over the text and, except for
// the final window, retreats to the nearest sentence terminator or newline
// when one exists past the midpoint of the window. Consecutive chunks overlap
// by Overlap runes. Chunks shorter than MinChunkLen (stray headers, page
// furniture) are dropped.
type SentenceSplitter struct {
	ChunkSize   int
	Overlap     int
	MinChunkLen int
}

func NewSentenceSplitter(chunkSize, overlap, minChunkLen int) *SentenceSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	if minChunkLen < 0 {
		minChunkLen = 0
	}
	return &SentenceSplitter{
		ChunkSize:   chunkSize,
		Overlap:     overlap,
		MinChunkLen: minChunkLen,
	}
}

func (s *SentenceSplitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if breakPoint := lastBreak(runes, start, end); breakPoint-start > s.ChunkSize/2 {
			end = breakPoint + 1
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(chunk)) >= s.MinChunkLen {
			out = append(out, chunk)
		}

		if end == len(runes) {
			break
		}
		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// lastBreak returns the index of the nearest sentence terminator or newline
// searching backward from end, or start when none exists in the window.
func lastBreak(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if runes[i] == '.' || runes[i] == '\n' {
			return i
		}
	}
	return start
}

// FixedSplitter cuts hard windows with no boundary seeking and no overlap.
// Used on the bulk ingestion path where throughput matters more than
// boundary quality.
type FixedSplitter struct {
	ChunkSize int
}

func NewFixedSplitter(chunkSize int) *FixedSplitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &FixedSplitter{ChunkSize: chunkSize}
}

func (s *FixedSplitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	for start := 0; start < len(runes); start += s.ChunkSize {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}
