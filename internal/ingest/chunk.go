package ingest

import "unicode"

// SplitText splits text into chunks of at most chunkSize runes, each starting
// overlap runes before the previous one ended. A chunk end is pulled back to
// the nearest whitespace in its last fifth so words are not cut in half.
func SplitText(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 || isBlank(runes) {
		return nil
	}
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		end = softBreak(runes, start, end, chunkSize/5)
		chunks = append(chunks, string(runes[start:end]))

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func softBreak(runes []rune, start, end, window int) int {
	for i := end; i > end-window && i > start+1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
