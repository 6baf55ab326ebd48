package pipeline

import (
	"fmt"
	"strings"
)

// ParagraphChunker creates a chunker that greedily packs paragraphs.
// Paragraphs are accumulated until adding the next would exceed
// chunkSize, then the chunk is closed and the next chunk is seeded with
// the last overlap characters of the previous one for context
// continuity. A single paragraph longer than chunkSize becomes its own
// oversized chunk.
func ParagraphChunker(chunkSize int, overlap int) ChunkFunc {
	return func(text string) ([]ChunkDraft, error) {
		if chunkSize <= 0 {
			return nil, fmt.Errorf("chunk size must be positive")
		}
		if overlap < 0 {
			return nil, fmt.Errorf("overlap must not be negative")
		}
		if overlap >= chunkSize {
			return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)
		}

		var paragraphs []string
		for _, para := range strings.Split(text, "\n\n") {
			para = strings.TrimSpace(para)
			if para != "" {
				paragraphs = append(paragraphs, para)
			}
		}

		var chunks []ChunkDraft
		current := ""

		appendChunk := func(content string) {
			chunks = append(chunks, ChunkDraft{
				Content: content,
				Index:   len(chunks),
				Metadata: map[string]interface{}{
					"chunking_method": "paragraph",
				},
			})
		}

		for _, para := range paragraphs {
			if current == "" {
				current = para
				continue
			}

			candidate := current + "\n\n" + para
			if len(candidate) > chunkSize {
				appendChunk(current)

				// The seed counts toward the next chunk's budget. When it
				// would not fit together with the paragraph, start clean so
				// only oversized single paragraphs exceed chunkSize.
				seed := tail(current, overlap)
				if seed != "" && len(seed)+2+len(para) <= chunkSize {
					current = seed + "\n\n" + para
				} else {
					current = para
				}
				continue
			}

			current = candidate
		}

		if current != "" {
			appendChunk(current)
		}

		return chunks, nil
	}
}

// SentenceChunker creates a chunker that splits by sentences.
func SentenceChunker(maxSentencesPerChunk int) ChunkFunc {
	return func(text string) ([]ChunkDraft, error) {
		if maxSentencesPerChunk <= 0 {
			return nil, fmt.Errorf("max sentences per chunk must be positive")
		}

		// Handle empty or whitespace-only text
		if strings.TrimSpace(text) == "" {
			return []ChunkDraft{}, nil
		}

		text = strings.ReplaceAll(text, "! ", "!|")
		text = strings.ReplaceAll(text, "? ", "?|")
		text = strings.ReplaceAll(text, ". ", ".|")

		var sentences []string
		for _, s := range strings.Split(text, "|") {
			s = strings.TrimSpace(s)
			if s != "" {
				sentences = append(sentences, s)
			}
		}

		var chunks []ChunkDraft
		var currentChunk []string

		appendChunk := func() {
			chunks = append(chunks, ChunkDraft{
				Content: strings.Join(currentChunk, " "),
				Index:   len(chunks),
				Metadata: map[string]interface{}{
					"chunking_method": "sentence",
					"num_sentences":   len(currentChunk),
				},
			})
			currentChunk = nil
		}

		for _, sentence := range sentences {
			currentChunk = append(currentChunk, sentence)
			if len(currentChunk) >= maxSentencesPerChunk {
				appendChunk()
			}
		}

		// Add remaining sentences
		if len(currentChunk) > 0 {
			appendChunk()
		}

		return chunks, nil
	}
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
