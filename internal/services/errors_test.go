package services_test

import (
	"errors"
	"strings"
	"testing"

	"narrator/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "translating", "translate", "chunk 2 failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"translating", "translate", "chunk 2 failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestKindClassification(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "", "submit", "unsupported language", nil), "validation"},
		{services.Wrap(services.ErrDownload, "downloading", "download_audio", "exit 1", nil), "download"},
		{services.Wrap(services.ErrExternalService, "synthesizing", "tts", "503", nil), "external_service"},
		{services.Wrap(services.ErrPipeline, "concatenating", "concat", "ffmpeg", nil), "pipeline"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
