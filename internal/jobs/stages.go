package jobs

import "fmt"

// Stage labels reported outside the pipeline stages.
const (
	LabelWaiting  = "Waiting"
	LabelComplete = "Complete"
	LabelFailed   = "Failed"
)

// Stage describes one pipeline macro-step and its reserved progress range.
type Stage struct {
	Status Status
	Start  int
	End    int
	Label  string
}

var stages = []Stage{
	{Status: StatusDownloading, Start: 0, End: 15, Label: "Downloading audio"},
	{Status: StatusTranscribing, Start: 15, End: 30, Label: "Transcribing speech"},
	{Status: StatusExtractingVoice, Start: 30, End: 38, Label: "Extracting voice sample"},
	{Status: StatusCloningVoice, Start: 38, End: 48, Label: "Cloning voice"},
	{Status: StatusTranslating, Start: 48, End: 65, Label: "Translating text"},
	{Status: StatusSynthesizing, Start: 65, End: 90, Label: "Synthesizing speech"},
	{Status: StatusConcatenating, Start: 90, End: 98, Label: "Building audiobook"},
}

// Stages returns the pipeline stage table in execution order.
func Stages() []Stage {
	cp := make([]Stage, len(stages))
	copy(cp, stages)
	return cp
}

// StageFor returns the descriptor for a processing status.
func StageFor(status Status) (Stage, bool) {
	for _, stage := range stages {
		if stage.Status == status {
			return stage, true
		}
	}
	return Stage{}, false
}

// Mid returns the midpoint of the stage range.
func (s Stage) Mid() int {
	return (s.Start + s.End) / 2
}

// Progress maps done/total sub-steps onto the stage range.
func (s Stage) Progress(done, total int) int {
	if total <= 0 {
		return s.Start
	}
	done = min(max(done, 0), total)
	return s.Start + (s.End-s.Start)*done/total
}

// ProgressLabel renders the stage label with a sub-step counter.
func (s Stage) ProgressLabel(done, total int) string {
	return fmt.Sprintf("%s (%d/%d)", s.Label, done, total)
}

// clampPercent bounds percent to the range allowed for status.
func clampPercent(status Status, percent int) int {
	switch status {
	case StatusPending, StatusFailed:
		return 0
	case StatusCompleted:
		return 100
	}
	if stage, ok := StageFor(status); ok {
		return min(max(percent, stage.Start), stage.End)
	}
	return min(max(percent, 0), 100)
}
