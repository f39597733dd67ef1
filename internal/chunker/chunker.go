// Package chunker splits raw document text into sentence-bounded,
// size-targeted chunks used as the unit of similarity comparison.
package chunker

import "strings"

const (
	// DefaultTargetSize is the target chunk length in runes.
	DefaultTargetSize = 500
	// MinChunkSize is the floor below which a chunk is discarded as noise.
	MinChunkSize = 50
)

// terminators end a sentence in both CJK and Latin text.
const terminators = "。！？.!?"

// Split breaks text into chunks of roughly targetSize runes, never cutting
// inside a sentence. Sentences accumulate into the current chunk until the
// next one would push it past the target. Chunks shorter than MinChunkSize
// runes are dropped; if nothing survives that floor, the whole trimmed input
// is returned as a single chunk so short documents still get checked.
// Identical input and size always yield identical output, and emitted chunks
// never overlap.
func Split(text string, targetSize int) []string {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, s := range sentences {
		sLen := len([]rune(s))
		if currentLen > 0 && currentLen+sLen > targetSize {
			if currentLen >= MinChunkSize {
				chunks = append(chunks, current.String())
			}
			current.Reset()
			currentLen = 0
		}
		current.WriteString(s)
		currentLen += sLen
	}
	if currentLen >= MinChunkSize {
		chunks = append(chunks, current.String())
	}
	if chunks == nil {
		// Nothing survived the noise floor. Short documents still need a
		// unit of comparison, so the whole input stands in as one chunk.
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			chunks = []string{trimmed}
		}
	}
	return chunks
}

// splitSentences cuts text after every terminator, keeping the terminator
// with its sentence. A trailing fragment without a terminator is kept too.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if strings.ContainsRune(terminators, r) {
			s := string(runes[start : i+1])
			if strings.TrimSpace(s) != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		s := string(runes[start:])
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
