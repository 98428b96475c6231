package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsCommandTailAndJobFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "narrator.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := strings.Join([]string{
		"2026-01-01T00:00:00Z INFO daemon: narrator daemon started",
		"2026-01-01T00:00:01Z INFO workflow [aaa111]: stage started stage=downloading",
		"2026-01-01T00:00:02Z INFO workflow [bbb222]: stage started stage=downloading",
		"2026-01-01T00:00:03Z INFO workflow [aaa111]: stage completed stage=downloading",
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, "", env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Count(out, "\n") != 2 || !strings.Contains(out, "bbb222") {
		t.Fatalf("unexpected tail output:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--job", "aaa111"}, "", env.configPath)
	if err != nil {
		t.Fatalf("logs --job: %v", err)
	}
	if strings.Contains(out, "bbb222") || strings.Count(out, "aaa111") != 2 {
		t.Fatalf("unexpected filtered output:\n%s", out)
	}
}
