package guidelines

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 600
	DefaultChunkOverlap = 100
)

// Chunk splits text into windows of at most size runes, each repeating the
// last overlap runes of the one before. A window is cut after the last
// sentence end in its second half, else after the last space or comma
// there, else at size.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(strings.TrimSpace(text))

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = start + cutPoint(runes[start:end], size/2)
		}
		if c := strings.TrimSpace(string(runes[start:end])); c != "" {
			chunks = append(chunks, c)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// cutPoint returns the offset just past the best break in rs beyond min.
func cutPoint(rs []rune, min int) int {
	for _, isBreak := range []func(rune) bool{isSentenceEnd, isSoftBreak} {
		for i := len(rs); i > min; i-- {
			if isBreak(rs[i-1]) {
				return i
			}
		}
	}
	return len(rs)
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '\n', '。', '！', '？', '；', '.', '!', '?', ';':
		return true
	}
	return false
}

func isSoftBreak(r rune) bool {
	return r == '，' || r == '、' || r == ',' || unicode.IsSpace(r)
}
