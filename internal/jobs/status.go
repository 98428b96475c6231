package jobs

import "strings"

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending         Status = "pending"
	StatusDownloading     Status = "downloading"
	StatusTranscribing    Status = "transcribing"
	StatusExtractingVoice Status = "extracting_voice"
	StatusCloningVoice    Status = "cloning_voice"
	StatusTranslating     Status = "translating"
	StatusSynthesizing    Status = "synthesizing"
	StatusConcatenating   Status = "concatenating"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// allStatuses lists statuses in pipeline order; the index is the status rank.
var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusTranscribing,
	StatusExtractingVoice,
	StatusCloningVoice,
	StatusTranslating,
	StatusSynthesizing,
	StatusConcatenating,
	StatusCompleted,
	StatusFailed,
}

var statusRank = func() map[Status]int {
	ranks := make(map[Status]int, len(allStatuses))
	for i, status := range allStatuses {
		ranks[status] = i
	}
	return ranks
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusRank[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsProcessing reports whether the status is one of the pipeline stages.
func (s Status) IsProcessing() bool {
	_, ok := StageFor(s)
	return ok
}

// canTransition enforces the fixed stage order: statuses never move backwards,
// terminal statuses are final, and FAILED is reachable from any live status.
func canTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

// Tier caps how much of the source is processed.
type Tier string

const (
	TierShort  Tier = "short"
	TierMedium Tier = "medium"
	TierFull   Tier = "full"
)

// AllTiers returns the tiers in ascending order of coverage.
func AllTiers() []Tier {
	return []Tier{TierShort, TierMedium, TierFull}
}

// ParseTier converts a string into a known Tier.
func ParseTier(value string) (Tier, bool) {
	switch tier := Tier(strings.ToLower(strings.TrimSpace(value))); tier {
	case TierShort, TierMedium, TierFull:
		return tier, true
	default:
		return "", false
	}
}
