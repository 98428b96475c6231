package ytdlp

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

var (
	cueIDPattern     = regexp.MustCompile(`^\d+$`)
	markupPattern    = regexp.MustCompile(`<[^>]+>`)
	stylePattern     = regexp.MustCompile(`\{[^}]+\}`)
	timestampPattern = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d+)(?:[.,](\d+))?`)
)

// ParseVTT flattens WebVTT (or SRT) subtitles into plain text. Header, note,
// cue id, and timing lines are dropped; inline tags are stripped and repeated
// lines (common in auto-generated captions) are emitted once. A positive
// maxSeconds stops at the first cue that starts after it.
func ParseVTT(raw string, maxSeconds int) string {
	seen := make(map[string]struct{})
	var lines []string

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") {
			continue
		}
		if strings.Contains(line, "-->") {
			if maxSeconds > 0 {
				start := strings.TrimSpace(strings.SplitN(line, "-->", 2)[0])
				if secs, ok := timestampSeconds(start); ok && secs > maxSeconds {
					break
				}
			}
			continue
		}
		if cueIDPattern.MatchString(line) {
			continue
		}
		clean := markupPattern.ReplaceAllString(line, "")
		clean = strings.TrimSpace(stylePattern.ReplaceAllString(clean, ""))
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		lines = append(lines, clean)
	}
	return strings.Join(lines, " ")
}

// timestampSeconds parses HH:MM:SS.mmm or MM:SS.mmm, truncating fractions.
func timestampSeconds(ts string) (int, bool) {
	match := timestampPattern.FindStringSubmatch(ts)
	if match == nil {
		return 0, false
	}
	hours := 0
	if match[1] != "" {
		hours, _ = strconv.Atoi(match[1])
	}
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	return hours*3600 + minutes*60 + seconds, true
}
