package preflight

import (
	"context"

	"narrator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	// Warning marks a passing check whose configuration changes job behavior.
	Warning bool
	Detail  string
}

// RunAll executes the local preflight checks for the given config: working
// directories, required binaries and the fallback voice. Remote API checks are opt-in through
// RunServices because they spend provider quota.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Path
		}
		results = append(results, result)
	}
	results = append(results, CheckDefaultVoice(cfg.Pipeline))
	return results
}

// RunServices checks the translation and speech providers.
func RunServices(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckLLM(ctx, "Translation LLM", cfg.LLM),
		CheckElevenLabs(ctx, cfg.ElevenLabs),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
