package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"narrator/internal/services"
)

const probeOK = `{"streams":[{"index":0,"codec_name":"mp3","codec_type":"audio"}],"format":{"duration":"12.5"}}`

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(t *testing.T, calls *[]recordedCall, probe string) func(ctx context.Context, name string, args ...string) ([]byte, error) {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: append([]string(nil), args...)})
		if name == "ffprobe" {
			return []byte(probe), nil
		}
		out := args[len(args)-1]
		return nil, os.WriteFile(out, []byte("audio"), 0o644)
	}
}

func TestExtractWritesSample(t *testing.T) {
	dir := t.TempDir()
	var calls []recordedCall
	svc := NewService(Config{SampleSeconds: 30})
	svc.WithCommandRunner(fakeRunner(t, &calls, probeOK))

	path, err := svc.Extract(context.Background(), filepath.Join(dir, "source.wav"), dir)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if path != filepath.Join(dir, SampleFileName) {
		t.Fatalf("unexpected sample path %s", path)
	}
	if len(calls) != 1 || calls[0].name != "ffmpeg" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	idx := slices.Index(calls[0].args, "-t")
	if idx < 0 || calls[0].args[idx+1] != "30" {
		t.Fatalf("expected -t 30 in %v", calls[0].args)
	}
}

func TestExtractFailure(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("ffmpeg: exit status 1: Invalid data found")
	})
	_, err := svc.Extract(context.Background(), "missing.wav", t.TempDir())
	if !errors.Is(err, services.ErrPipeline) {
		t.Fatalf("expected pipeline error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}

func TestConcatWritesListAndVerifies(t *testing.T) {
	dir := t.TempDir()
	chunks := []string{filepath.Join(dir, "tts_chunk_0000.mp3"), filepath.Join(dir, "it's_chunk_0001.mp3")}
	var calls []recordedCall
	var list string
	svc := NewService(Config{})
	runner := fakeRunner(t, &calls, probeOK)
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == "ffmpeg" {
			data, err := os.ReadFile(args[slices.Index(args, "-i")+1])
			if err != nil {
				t.Fatalf("read concat list: %v", err)
			}
			list = string(data)
		}
		return runner(ctx, name, args...)
	})

	output := filepath.Join(dir, "audiobook.mp3")
	if err := svc.Concat(context.Background(), chunks, output); err != nil {
		t.Fatalf("Concat returned error: %v", err)
	}
	if len(calls) != 2 || calls[0].name != "ffmpeg" || calls[1].name != "ffprobe" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	wantList := "file '" + chunks[0] + "'\nfile '" + strings.ReplaceAll(chunks[1], "'", `'\''`) + "'\n"
	if list != wantList {
		t.Fatalf("unexpected concat list:\n%s", list)
	}
	if _, err := os.Stat(filepath.Join(dir, concatListName)); !os.IsNotExist(err) {
		t.Fatalf("expected concat list to be removed, got %v", err)
	}
}

func TestConcatRejectsEmptyInput(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.Concat(context.Background(), nil, filepath.Join(t.TempDir(), "out.mp3")); err == nil {
		t.Fatal("expected error for empty chunk list")
	}
}

func TestConcatFailsVerificationWithoutAudio(t *testing.T) {
	dir := t.TempDir()
	var calls []recordedCall
	svc := NewService(Config{})
	svc.WithCommandRunner(fakeRunner(t, &calls, `{"streams":[],"format":{"duration":"0"}}`))
	err := svc.Concat(context.Background(), []string{filepath.Join(dir, "a.mp3")}, filepath.Join(dir, "audiobook.mp3"))
	if err == nil || !strings.Contains(err.Error(), "no audio stream") {
		t.Fatalf("expected verification failure, got %v", err)
	}
}

func TestProbeRejectsZeroDuration(t *testing.T) {
	var calls []recordedCall
	svc := NewService(Config{})
	svc.WithCommandRunner(fakeRunner(t, &calls, `{"streams":[{"codec_type":"audio"}],"format":{"duration":"0"}}`))
	if _, err := svc.Probe(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected duration error")
	}
}
