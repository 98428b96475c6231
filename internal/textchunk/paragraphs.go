package textchunk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const paragraphSeparator = "\n\n"

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n\s*`)

// SplitParagraphs returns text as a single chunk when it fits within maxChars
// runes. Longer text is split at blank lines and the paragraphs are packed
// greedily, joined by a blank line. A paragraph that alone exceeds maxChars is
// broken into sentence-packed pieces. Blank input yields nil.
func SplitParagraphs(text string, maxChars int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if maxChars <= 0 || utf8.RuneCountInString(trimmed) <= maxChars {
		return []string{trimmed}
	}

	var units []unit
	for _, para := range blankLine.Split(trimmed, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= maxChars {
			units = append(units, unit{text: para, sep: paragraphSeparator})
			continue
		}
		for i, piece := range SplitSentences(para, maxChars) {
			sep := " "
			if i == 0 {
				sep = paragraphSeparator
			}
			units = append(units, unit{text: piece, sep: sep})
		}
	}
	return pack(units, maxChars)
}

// Tail returns the last n runes of text with leading whitespace removed. It is
// used as continuity context for the next translation request.
func Tail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[len(runes)-n:]))
}
