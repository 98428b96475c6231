package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrExternalService = errors.New("external service error")
	ErrDownload        = errors.New("download error")
	ErrPipeline        = errors.New("pipeline error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrTransient       = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind reports the short classification name of err for logs and API payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDownload):
		return "download"
	case errors.Is(err, ErrExternalService):
		return "external_service"
	case errors.Is(err, ErrPipeline):
		return "pipeline"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}

// Hint returns operator guidance for a classified failure.
func Hint(err error) string {
	switch Kind(err) {
	case "validation":
		return "check the submitted language, tier, and source reference"
	case "download":
		return "verify the source URL is reachable and yt-dlp is up to date"
	case "external_service":
		return "check API keys and provider status"
	case "pipeline":
		return "check ffmpeg output in the daemon log"
	case "configuration":
		return "run narrator config validate"
	case "timeout", "transient":
		return "retry the job"
	default:
		return "check daemon logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
