// Package biz provides business logic for the knowledge service.
package biz

import (
	"strings"
)

// Default chunking parameters.
const (
	DefaultChunkSize    = 900
	DefaultChunkOverlap = 150
)

// Chunker splits extracted text into overlapping chunks.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Non-positive size or an overlap that does
// not leave a positive step falls back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 6
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split splits text into overlapping chunks using a rune-based sliding
// window. Text at most one window long yields a single chunk; empty or
// whitespace-only text yields none. Consecutive chunks share the last
// overlap runes of the previous chunk.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	step := c.size - c.overlap
	for i := 0; i < len(runes); i += step {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Size returns the configured chunk size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }
