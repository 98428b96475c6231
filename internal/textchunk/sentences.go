package textchunk

import (
	"strings"
	"unicode/utf8"
)

// Normalize collapses whitespace runs to single spaces, trims the ends, and
// ensures a space follows every sentence ending in fullwidth punctuation so
// that sentence boundaries are always marked by a single space.
func Normalize(text string) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	var b strings.Builder
	b.Grow(len(runes) + 8)
	for i := 0; i < len(runes); {
		if !isTerminator(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		end, wide := terminatorRun(runes, i)
		b.WriteString(string(runes[i:end]))
		if wide && end < len(runes) && runes[end] != ' ' {
			b.WriteByte(' ')
		}
		i = end
	}
	return b.String()
}

// Sentences returns the sentences of the normalized text in order. Joining the
// result with single spaces yields Normalize(text).
func Sentences(text string) []string {
	runes := []rune(Normalize(text))
	var out []string
	start := 0
	for i := 0; i < len(runes); {
		if !isTerminator(runes[i]) {
			i++
			continue
		}
		end, _ := terminatorRun(runes, i)
		switch {
		case end == len(runes):
			out = append(out, string(runes[start:end]))
			start = end
		case runes[end] == ' ':
			out = append(out, string(runes[start:end]))
			start = end + 1
		}
		i = end
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// SplitSentences packs sentences greedily into chunks of at most maxChars
// runes, joining sentences inside a chunk with a single space. A sentence
// longer than maxChars becomes a chunk on its own. Blank input yields nil and
// a non-positive maxChars disables the limit.
//
// Chunks are cut from Normalize(text), not from text itself, so CJK input
// gains a space after each fullwidth terminator: "日本語。中国語。" is spoken
// as "日本語。 中国語。". Joining the chunks with single spaces reproduces
// Normalize(text).
func SplitSentences(text string, maxChars int) []string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}
	units := make([]unit, len(sentences))
	for i, s := range sentences {
		units[i] = unit{text: s, sep: " "}
	}
	return pack(units, maxChars)
}

// unit is a packable piece of text and the separator used when it follows
// another unit in the same chunk.
type unit struct {
	text string
	sep  string
}

func pack(units []unit, maxChars int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0
	for _, u := range units {
		n := utf8.RuneCountInString(u.text)
		if curLen == 0 {
			cur.WriteString(u.text)
			curLen = n
			continue
		}
		sepLen := utf8.RuneCountInString(u.sep)
		if maxChars <= 0 || curLen+sepLen+n <= maxChars {
			cur.WriteString(u.sep)
			cur.WriteString(u.text)
			curLen += sepLen + n
			continue
		}
		chunks = append(chunks, cur.String())
		cur.Reset()
		cur.WriteString(u.text)
		curLen = n
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// terminatorRun returns the index just past the run of terminators starting at
// i plus any closing quotes or brackets, and whether the run holds fullwidth
// punctuation.
func terminatorRun(runes []rune, i int) (int, bool) {
	wide := false
	j := i
	for j < len(runes) && isTerminator(runes[j]) {
		if isWideTerminator(runes[j]) {
			wide = true
		}
		j++
	}
	for j < len(runes) && isCloser(runes[j]) {
		j++
	}
	return j, wide
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return isWideTerminator(r)
}

func isWideTerminator(r rune) bool {
	switch r {
	case '。', '！', '？':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』', '）':
		return true
	}
	return false
}
