package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"app": {"data_dir": "/srv/statements"},
		"providers": {
			"openai": {"api_key": "k1", "model": "gpt-4o-mini", "enabled": false},
			"googleai": {"api_key": "k2", "model": "gemini-2.0-flash", "enabled": true}
		},
		"gateways": {"telegram": {"token": "abc", "enabled": true}},
		"search": {"timeout": "5s"}
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.App.DataDir != "/srv/statements" {
		t.Errorf("expected data dir from file, got %q", cfg.App.DataDir)
	}
	if cfg.Agent.MaxRetries != 2 {
		t.Errorf("expected default max retries 2, got %d", cfg.Agent.MaxRetries)
	}
	if cfg.Search.Timeout != 5*time.Second {
		t.Errorf("expected 5s search timeout, got %v", cfg.Search.Timeout)
	}

	name, p := cfg.GetDefaultProvider()
	if name != "googleai" || p.Model != "gemini-2.0-flash" {
		t.Errorf("unexpected default provider %s %+v", name, p)
	}

	if _, ok := cfg.GetGatewayConfig("telegram"); !ok {
		t.Error("expected telegram gateway to be enabled")
	}
	if _, ok := cfg.GetGatewayConfig("discord"); ok {
		t.Error("discord gateway should not be enabled")
	}
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("FINMATE_SERVER_ADDRESS", ":9999")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/fin?sslmode=disable")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("expected env override for address, got %q", cfg.Server.Address)
	}

	dsn, err := cfg.PostgresDSN()
	if err != nil {
		t.Fatal(err)
	}
	if dsn != "postgres://u:p@db:5432/fin?sslmode=disable" {
		t.Errorf("unexpected dsn %q", dsn)
	}
}

func TestPostgresDSN_FromParts(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "localhost", DBName: "fin", User: "me", Password: "pw"}}
	dsn, err := cfg.PostgresDSN()
	if err != nil {
		t.Fatal(err)
	}
	if dsn != "postgres://me:pw@localhost:5432/fin?sslmode=disable" {
		t.Errorf("unexpected dsn %q", dsn)
	}

	if _, err := (&Config{}).PostgresDSN(); err == nil {
		t.Error("expected error for empty database config")
	}
}
