package model

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.BaseURL != "http://localhost:8000" {
		t.Errorf("default base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutSec != 30 {
		t.Errorf("default timeout_sec = %d", cfg.Server.TimeoutSec)
	}
	if cfg.Display.NotificationTTLSec != 4 {
		t.Errorf("default notification_ttl_sec = %d", cfg.Display.NotificationTTLSec)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &AppConfig{
		Server: ServerConfig{
			BaseURL:    "https://api.example.com",
			TimeoutSec: 10,
		},
		Cache: CacheConfig{
			Path: "/tmp/roleboard-cache.db",
		},
		Display: DisplayConfig{
			NotificationTTLSec: 7,
		},
	}

	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got.Server != want.Server {
		t.Errorf("server = %+v, want %+v", got.Server, want.Server)
	}
	if got.Cache != want.Cache {
		t.Errorf("cache = %+v, want %+v", got.Cache, want.Cache)
	}
	if got.Display != want.Display {
		t.Errorf("display = %+v, want %+v", got.Display, want.Display)
	}
}
