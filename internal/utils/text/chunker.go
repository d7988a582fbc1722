package text

import (
	"strings"
)

// SplitterConfig holds configuration for text splitting.
type SplitterConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// RecursiveCharacterSplitter splits text by a prioritized list of separators,
// accumulating pieces into chunks of at most ChunkSize characters with
// ChunkOverlap carried between adjacent chunks.
type RecursiveCharacterSplitter struct {
	config SplitterConfig
}

// NewRecursiveCharacterSplitter creates a splitter with defaults suited to
// issue bodies and diff text: 2000-char chunks with 200-char overlap.
func NewRecursiveCharacterSplitter() *RecursiveCharacterSplitter {
	return &RecursiveCharacterSplitter{
		config: SplitterConfig{
			ChunkSize:    2000,
			ChunkOverlap: 200,
			Separators:   []string{"\n\n", "\n", " ", ""},
		},
	}
}

// SplitText splits a text into chunks. Short inputs come back as a single
// chunk; whitespace-only chunks are dropped.
func (s *RecursiveCharacterSplitter) SplitText(text string) []string {
	return s.split(text, s.config.Separators)
}

func (s *RecursiveCharacterSplitter) split(text string, separators []string) []string {
	finalChunks := []string{}
	separator := ""

	for _, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			break
		}
	}

	var splits []string
	if separator != "" {
		splits = strings.Split(text, separator)
	} else {
		splits = []string{text}
	}

	currentChunk := ""
	for _, split := range splits {
		if len(currentChunk)+len(split)+len(separator) > s.config.ChunkSize {
			if currentChunk != "" {
				prevChunk := currentChunk
				finalChunks = append(finalChunks, prevChunk)

				// Seed the next chunk with the tail of the previous one.
				overlap := s.config.ChunkOverlap
				if overlap > 0 {
					runes := []rune(prevChunk)
					if overlap >= len(runes) {
						currentChunk = prevChunk
					} else {
						currentChunk = string(runes[len(runes)-overlap:])
					}
				} else {
					currentChunk = ""
				}
			}
		}

		if currentChunk != "" {
			currentChunk += separator
		}
		currentChunk += split
	}

	if currentChunk != "" {
		finalChunks = append(finalChunks, currentChunk)
	}

	result := []string{}
	for _, c := range finalChunks {
		if strings.TrimSpace(c) != "" {
			result = append(result, c)
		}
	}

	return result
}
