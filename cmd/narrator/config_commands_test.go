package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("NARRATOR_DEFAULT_VOICE_ID", "")

	out, _, err := runCLI(t, []string{"config", "validate"}, "", env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "yt-dlp")
	requireContains(t, out, "[WARN] not set; jobs fail when voice cloning fails")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// The generated sample must load cleanly.
	if _, _, err := runCLI(t, []string{"estimate", "60"}, "", target); err != nil {
		t.Fatalf("sample config did not load: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite guard, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsMissingBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	content, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content = append(content, []byte("\n[media]\nytdlp_binary = \"definitely-missing-ytdlp\"\n")...)
	if err := os.WriteFile(env.configPath, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, []string{"config", "validate"}, "", env.configPath)
	if err == nil || !strings.Contains(err.Error(), "check(s) failed") {
		t.Fatalf("expected failed checks, got %v", err)
	}
	requireContains(t, out, "definitely-missing-ytdlp")
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "stats"}, "", env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries: 0")
	requireContains(t, out, "transcripts")

	out, _, err = runCLI(t, []string{"cache", "prune", "--older-than", "1h"}, "", env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "No cache entries pruned")
}

func TestTestNotifyWithoutTargets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, "", env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "no notification target configured")
}
