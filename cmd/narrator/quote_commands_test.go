package main

import (
	"encoding/json"
	"strings"
	"testing"

	"narrator/internal/api"
)

func TestQuoteCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"quote", "https://example.com/v"}, env.api.address(), env.configPath)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	requireContains(t, out, "Lecture")
	requireContains(t, out, "Campus")
	requireContains(t, out, "10m0s")
	requireContains(t, out, "$2.50")
}

func TestEstimateCommandOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	// No --api: estimate never contacts the daemon.
	out, _, err := runCLI(t, []string{"estimate", "10:00", "--json"}, "", env.configPath)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	var tiers []api.TierCost
	if err := json.Unmarshal([]byte(out), &tiers); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(tiers) != 3 {
		t.Fatalf("expected three tiers, got %+v", tiers)
	}
	last := tiers[len(tiers)-1]
	if last.Tier != "full" || last.DurationMinutes != 10 {
		t.Fatalf("unexpected full tier %+v", last)
	}
	if tiers[0].DurationMinutes >= last.DurationMinutes {
		t.Fatalf("expected capped short tier, got %+v", tiers[0])
	}
}

func TestEstimateCommandRejectsBadDuration(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"estimate", "ten minutes"}, "", env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid duration format") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestLanguagesCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"languages"}, "", "")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	requireContains(t, out, "Spanish")
	requireContains(t, out, "Japanese")
}
