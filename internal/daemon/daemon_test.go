package daemon_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"narrator/internal/api"
	"narrator/internal/daemon"
	"narrator/internal/jobs"
	"narrator/internal/pricing"
	"narrator/internal/testsupport"
	"narrator/internal/workflow"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := jobs.NewStore(nil)
	mgr := workflow.NewManager(cfg, store, workflow.Dependencies{}, nil)
	svc := api.NewJobService(store, mgr, nil, pricing.NewCalculator(cfg), cfg.StreamIdleTimeout())
	d, err := daemon.New(cfg, mgr, svc, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.Bind == "" || !strings.HasPrefix(status.Bind, "127.0.0.1:") {
		t.Fatalf("unexpected bind %q", status.Bind)
	}
	if !strings.HasSuffix(status.LockFilePath, "narrator.lock") {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency report")
	}

	client, err := api.NewClient(d.Address())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	reqCtx, reqCancel := context.WithTimeout(ctx, 5*time.Second)
	defer reqCancel()
	health, err := client.Health(reqCtx)
	if err != nil || health.Status != "ok" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
	remote, err := client.Status(reqCtx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !remote.Running || remote.Workflow.JobCounts["pending"] != 0 {
		t.Fatalf("unexpected remote status %+v", remote)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to report stopped")
	}
	if d.Address() != "" {
		t.Fatalf("expected listener closed, got %q", d.Address())
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	build := func() *daemon.Daemon {
		store := jobs.NewStore(nil)
		mgr := workflow.NewManager(cfg, store, workflow.Dependencies{}, nil)
		svc := api.NewJobService(store, mgr, nil, pricing.NewCalculator(cfg), time.Second)
		d, err := daemon.New(cfg, mgr, svc, nil)
		if err != nil {
			t.Fatalf("daemon.New: %v", err)
		}
		t.Cleanup(func() { _ = d.Close() })
		return d
	}

	first := build()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	second := build()
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestSendTestNotificationWithoutTargets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	cfg.Notifications.AMQPURL = ""
	sent, message, err := daemon.SendTestNotification(context.Background(), cfg)
	if err != nil || sent {
		t.Fatalf("expected no-op, got sent=%v err=%v", sent, err)
	}
	if message != "no notification target configured" {
		t.Fatalf("unexpected message %q", message)
	}
}
