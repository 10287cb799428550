package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
server:
  http_addr: ":9090"
  route_prefix: "make-server-test/"
kv:
  backend: redis
notify:
  channels:
    - type: webhook
      url: http://example.invalid/hook
      events: ["purchase_success"]
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SH_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SH_CRON_EXPIRY_SWEEP", "@every 5m")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("http_addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.Server.RoutePrefix != "/make-server-test" {
		t.Fatalf("route_prefix=%q", cfg.Server.RoutePrefix)
	}
	if cfg.KV.Backend != "redis" {
		t.Fatalf("backend=%q", cfg.KV.Backend)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("jwt_secret=%q", cfg.Auth.JWTSecret)
	}
	if cfg.Cron.ExpirySweep != "@every 5m" || cfg.Cron.Reconcile != "@every 6h" {
		t.Fatalf("cron=%+v", cfg.Cron)
	}
	if len(cfg.Notify.Channels) != 1 || cfg.Notify.Channels[0].Events[0] != "purchase_success" {
		t.Fatalf("channels=%+v", cfg.Notify.Channels)
	}
	if cfg.Chain.Timeout != 10*time.Second {
		t.Fatalf("chain timeout=%v", cfg.Chain.Timeout)
	}
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist.yaml", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.RoutePrefix != "/make-server-45dfd248" {
		t.Fatalf("route_prefix=%q", cfg.Server.RoutePrefix)
	}
	if cfg.KV.Backend != "memory" || cfg.Chain.Mode != "off" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SH_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SH_TEST_DOTENV", "")
	os.Unsetenv("SH_TEST_DOTENV")
	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := os.Getenv("SH_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("env=%q want loaded", got)
	}
}
