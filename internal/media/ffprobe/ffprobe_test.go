package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "Audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestParseDecodesOutput(t *testing.T) {
	output := []byte(`{"streams":[{"index":0,"codec_name":"mp3","codec_type":"audio","sample_rate":"44100","channels":2}],"format":{"filename":"audiobook.mp3","nb_streams":1,"duration":"61.2","format_name":"mp3"}}`)
	result, err := Parse(output)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.AudioStreamCount() != 1 || result.Streams[0].CodecName != "mp3" {
		t.Fatalf("unexpected streams %+v", result.Streams)
	}
	if result.DurationSeconds() != 61.2 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestArgsEndWithPath(t *testing.T) {
	args := Args("/tmp/a.mp3")
	if args[len(args)-1] != "/tmp/a.mp3" || args[len(args)-2] != "--" {
		t.Fatalf("unexpected args %v", args)
	}
}
