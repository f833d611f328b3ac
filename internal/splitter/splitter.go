// Package splitter chunks document text for embedding and indexing.
//
// Text is split on paragraph boundaries first, falling back to sentence
// boundaries for oversized paragraphs, and finally to fixed-size windows for
// sentences that still exceed the chunk size. Consecutive chunks share a
// configurable character overlap so retrieval does not lose context at
// chunk edges.
package splitter

import (
	"regexp"
	"strings"
)

var (
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
	sentenceRe  = regexp.MustCompile(`([.!?])\s+`)
)

// Splitter chunks text with a target size and overlap, both in characters.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a Splitter. chunkOverlap must be smaller than chunkSize;
// callers validate this at config load.
func New(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split chunks text into pieces of at most the configured chunk size.
// Text shorter than the chunk size is returned as a single chunk.
func (s *Splitter) Split(text string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	var current []string
	currentSize := 0

	flush := func() {
		chunks = append(chunks, strings.Join(current, "\n\n"))
		overlap := s.chunkOverlap
		if overlap > currentSize {
			overlap = currentSize
		}
		if overlap <= 0 {
			current = nil
			currentSize = 0
			return
		}
		// Carry trailing pieces into the next chunk until the overlap
		// budget is covered.
		kept := []string{}
		keptSize := 0
		for i := len(current) - 1; i >= 0; i-- {
			kept = append([]string{current[i]}, kept...)
			keptSize += len(current[i])
			if keptSize >= overlap {
				break
			}
		}
		current = kept
		currentSize = keptSize
	}

	for _, paragraph := range paragraphRe.Split(text, -1) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		if len(paragraph) <= s.chunkSize {
			if currentSize+len(paragraph) > s.chunkSize {
				flush()
			}
			current = append(current, paragraph)
			currentSize += len(paragraph)
			continue
		}

		for _, sentence := range splitSentences(paragraph) {
			if len(sentence) > s.chunkSize {
				if currentSize > 0 {
					chunks = append(chunks, strings.Join(current, "\n\n"))
					current = nil
					currentSize = 0
				}
				step := s.chunkSize - s.chunkOverlap
				for i := 0; i < len(sentence); i += step {
					end := i + s.chunkSize
					if end > len(sentence) {
						end = len(sentence)
					}
					chunks = append(chunks, sentence[i:end])
				}
				continue
			}

			if currentSize+len(sentence) > s.chunkSize {
				flush()
			}
			current = append(current, sentence)
			currentSize += len(sentence)
		}
	}

	if currentSize > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}

	return chunks
}

// splitSentences splits a paragraph on sentence-ending punctuation followed
// by whitespace, keeping the punctuation with the sentence.
func splitSentences(paragraph string) []string {
	marked := sentenceRe.ReplaceAllString(paragraph, "$1\x00")
	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
