package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" || cfg.DigestLimit != 100 || cfg.SyncLimit != 200 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "log_level: debug\nsync_api_base: https://staging.example.com\ndigest_limit: 25\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if cfg.SyncAPIBase != "https://staging.example.com" {
		t.Errorf("sync_api_base = %q", cfg.SyncAPIBase)
	}
	if cfg.DigestLimit != 25 {
		t.Errorf("digest_limit = %d", cfg.DigestLimit)
	}
	if cfg.SyncLimit != 200 {
		t.Errorf("unset sync_limit should default, got %d", cfg.SyncLimit)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid yaml should error")
	}
}

func TestResolveAppCredentialsFromFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.json"), []byte(`{"apiId": 12345, "apiHash": "abc"}`), 0600); err != nil {
		t.Fatal(err)
	}

	creds, err := ResolveAppCredentials(dir, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if creds.APIID != 12345 || creds.APIHash != "abc" {
		t.Errorf("unexpected creds: %+v", creds)
	}

	// Flags override the file.
	creds, err = ResolveAppCredentials(dir, 999, "zzz")
	if err != nil {
		t.Fatal(err)
	}
	if creds.APIID != 999 || creds.APIHash != "zzz" {
		t.Errorf("flags should win: %+v", creds)
	}
}

func TestResolveAppCredentialsMissing(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "")
	t.Setenv("TELEGRAM_API_HASH", "")
	if _, err := ResolveAppCredentials(t.TempDir(), 0, ""); err == nil {
		t.Error("missing credentials should error")
	}
}
