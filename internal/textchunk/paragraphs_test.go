package textchunk

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitParagraphsFitsInOneChunk(t *testing.T) {
	text := "  Para one.\n\nPara two.  "
	got := SplitParagraphs(text, 100)
	want := []string{"Para one.\n\nPara two."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSplitParagraphsBlankInput(t *testing.T) {
	if got := SplitParagraphs(" \n\n ", 10); got != nil {
		t.Fatalf("expected nil, got %q", got)
	}
}

func TestSplitParagraphsPacksGreedily(t *testing.T) {
	text := "aaaa\n\nbbbb\n\n\n  \ncccc\n\ndddddddddd"
	got := SplitParagraphs(text, 10)
	want := []string{"aaaa\n\nbbbb", "cccc", "dddddddddd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSplitParagraphsBreaksOversizedParagraphBySentence(t *testing.T) {
	text := "Intro.\n\nOne two. Three four. Five six."
	got := SplitParagraphs(text, 20)
	want := []string{"Intro.", "One two. Three four.", "Five six."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSplitParagraphsSingleLongTranscript(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("This is a subtitle line. ", 40))
	chunks := SplitParagraphs(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	if joined := strings.Join(chunks, " "); joined != text {
		t.Fatalf("sentence fallback should preserve text, got %q", joined)
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"hello world", 5, "world"},
		{"short", 500, "short"},
		{"日本語のテキスト", 3, "キスト"},
		{"anything", 0, ""},
		{"ends with space   ", 5, "space"},
	}
	for _, tt := range tests {
		if got := Tail(tt.text, tt.n); got != tt.want {
			t.Fatalf("Tail(%q, %d) = %q want %q", tt.text, tt.n, got, tt.want)
		}
	}
}
