// Package pricing derives tier duration caps and per-tier cost quotes from a
// source's duration.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"narrator/internal/config"
	"narrator/internal/jobs"
)

// TierQuote is the estimated cost of producing one tier.
type TierQuote struct {
	Tier              jobs.Tier
	DurationMinutes   float64
	TranscriptionCost float64
	TranslationCost   float64
	TTSCost           float64
	TotalCost         float64
}

// Calculator applies configured tier fractions and provider rates.
type Calculator struct {
	tiers          config.Tiers
	costs          config.Costs
	demoMaxSeconds int
}

// NewCalculator builds a Calculator from configuration.
func NewCalculator(cfg *config.Config) *Calculator {
	return &Calculator{
		tiers:          cfg.Tiers,
		costs:          cfg.Costs,
		demoMaxSeconds: cfg.Pipeline.DemoMaxSeconds,
	}
}

func (c *Calculator) fraction(tier jobs.Tier) (float64, bool) {
	switch tier {
	case jobs.TierShort:
		return c.tiers.ShortFraction, true
	case jobs.TierMedium:
		return c.tiers.MediumFraction, true
	default:
		return 0, false
	}
}

// TierSeconds returns the processing cap for tier, or 0 when uncapped.
func (c *Calculator) TierSeconds(tier jobs.Tier, durationSeconds int) int {
	fraction, capped := c.fraction(tier)
	if !capped || durationSeconds <= 0 {
		return 0
	}
	return int(float64(durationSeconds) * fraction)
}

// MaxSeconds is TierSeconds with the demo cap applied; a positive demo cap
// overrides the tier for every job.
func (c *Calculator) MaxSeconds(tier jobs.Tier, durationSeconds int) int {
	if c.demoMaxSeconds > 0 {
		return c.demoMaxSeconds
	}
	return c.TierSeconds(tier, durationSeconds)
}

// Quote estimates every tier for a source of the given duration.
func (c *Calculator) Quote(durationSeconds int) []TierQuote {
	fullMinutes := float64(max(durationSeconds, 0)) / 60.0
	quotes := make([]TierQuote, 0, 3)
	for _, tier := range jobs.AllTiers() {
		minutes := fullMinutes
		if fraction, capped := c.fraction(tier); capped {
			minutes = round(fullMinutes*fraction, 1)
		}
		quotes = append(quotes, c.build(tier, minutes))
	}
	return quotes
}

func (c *Calculator) build(tier jobs.Tier, minutes float64) TierQuote {
	transcription := round(minutes*c.costs.TranscriptionPerMinute, 4)
	translation := round(minutes*c.costs.TranslationPerMinute, 4)
	tts := round(minutes*c.costs.TTSPerMinute, 4)
	subtotal := transcription + translation + tts
	return TierQuote{
		Tier:              tier,
		DurationMinutes:   round(minutes, 1),
		TranscriptionCost: transcription,
		TranslationCost:   translation,
		TTSCost:           tts,
		TotalCost:         round(subtotal*(1+c.costs.PlatformMargin), 2),
	}
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// ParseDuration converts "3600", "45:30" or "1:30:00" into seconds.
func ParseDuration(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("invalid duration format: empty")
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration format: %s", value)
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration format: %s", value)
		}
		total = total*60 + n
	}
	return total, nil
}

// FormatUSD renders a cost for display.
func FormatUSD(value float64) string {
	switch {
	case value == 0:
		return "FREE"
	case value < 0.01:
		return fmt.Sprintf("$%.4f", value)
	default:
		return fmt.Sprintf("$%.2f", value)
	}
}
