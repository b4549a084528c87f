package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != DriverBolt {
		t.Errorf("default driver should be bolt, got %q", cfg.Store.Driver)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("default base path should be /api, got %q", cfg.API.BasePath)
	}
	if cfg.API.TaskListLimit != 100 {
		t.Errorf("default task list limit should be 100, got %d", cfg.API.TaskListLimit)
	}
	if cfg.Address() == "" {
		t.Error("Address should never be empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverPostgres)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("TASK_LIST_LIMIT", "25")
	t.Setenv("AUDITOR_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Errorf("driver override ignored, got %q", cfg.Store.Driver)
	}
	if cfg.API.TaskListLimit != 25 {
		t.Errorf("limit override ignored, got %d", cfg.API.TaskListLimit)
	}
	if cfg.Auditor.Interval != 30*time.Second {
		t.Errorf("interval override ignored, got %v", cfg.Auditor.Interval)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("rate limit override ignored")
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("TASK_LIST_LIMIT", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.TaskListLimit != 100 {
		t.Errorf("unparseable int should fall back to the default, got %d", cfg.API.TaskListLimit)
	}
}
