// Package chunker splits transcript text into fixed-size overlapping
// character windows for embedding.
package chunker

const (
	// DefaultSize is the default chunk length in characters.
	DefaultSize = 1000
	// DefaultOverlap is the default number of characters shared between
	// consecutive chunks.
	DefaultOverlap = 100
)

// Split cuts text into overlapping chunks of at most size characters.
// Each chunk after the first begins with exactly the last overlap
// characters of its predecessor, so concatenating the unique spans
// reconstructs the input. Sizes count runes, not bytes, so multi-byte
// text never splits mid-character. Empty input yields nil.
//
// Out-of-range parameters are normalized: size <= 0 falls back to
// DefaultSize, overlap < 0 to 0, and overlap >= size to size-1.
func Split(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; ; start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		chunks = append(chunks, string(runes[start:end]))
	}
}
