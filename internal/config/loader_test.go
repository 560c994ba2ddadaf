package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `addr: :9999
media_dir: /tmp
poll_timeout_ms: 250
teardown_timeout_ms: 5000
engine_log_level: warn
cors_origins: ["http://localhost:5173"]
default_options:
  - name: vo
    value: gpu
  - name: volume-max
    value: 150
  - name: mute
    value: true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.MediaDir != "/tmp" || cfg.EngineLogLevel != "warn" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.PollTimeout() != 250*time.Millisecond || cfg.TeardownTimeout() != 5*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", cfg.PollTimeout(), cfg.TeardownTimeout())
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if len(cfg.DefaultOptions) != 3 || cfg.DefaultOptions[0].Name != "vo" || cfg.DefaultOptions[0].Value != "gpu" {
		t.Fatalf("unexpected options: %+v", cfg.DefaultOptions)
	}
	if v, ok := cfg.DefaultOptions[1].Value.(int); !ok || v != 150 {
		t.Fatalf("volume-max decoded as %T %v", cfg.DefaultOptions[1].Value, cfg.DefaultOptions[1].Value)
	}
	if v, ok := cfg.DefaultOptions[2].Value.(bool); !ok || !v {
		t.Fatalf("mute decoded as %T %v", cfg.DefaultOptions[2].Value, cfg.DefaultOptions[2].Value)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","libmpv_path":"/opt/lib/libmpv.so.2","log_format":"console","max_body_bytes":4096,"default_options":[{"name":"volume-max","value":150}]}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.LibmpvPath != "/opt/lib/libmpv.so.2" || cfg.LogFormat != "console" || cfg.MaxBodyBytes != 4096 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if n, ok := cfg.DefaultOptions[0].Value.(json.Number); !ok || n.String() != "150" {
		t.Fatalf("volume-max decoded as %T %v", cfg.DefaultOptions[0].Value, cfg.DefaultOptions[0].Value)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmedia_dir=\"/x\"\nlog_level=\"debug\"\n\n[[default_options]]\nname=\"hwdec\"\nvalue=\"auto\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.MediaDir != "/x" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.DefaultOptions) != 1 || cfg.DefaultOptions[0].Name != "hwdec" || cfg.DefaultOptions[0].Value != "auto" {
		t.Fatalf("unexpected options: %+v", cfg.DefaultOptions)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestLoad_Validation(t *testing.T) {
	d := t.TempDir()
	cases := map[string]string{
		"neg.yaml":    "poll_timeout_ms: -1\n",
		"format.yaml": "log_format: xml\n",
		"noname.yaml": "default_options:\n  - value: 1\n",
		"body.yaml":   "max_body_bytes: -5\n",
	}
	for name, body := range cases {
		if _, err := Load(writeTempFile(t, d, name, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
