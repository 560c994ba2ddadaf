package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mpvd/internal/config"
)

// applyFlags overrides file values with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if v, _ := f.GetString(name); v != "" && (f.Changed(name) || *dst == "") {
			*dst = v
		}
	}
	str("addr", &cfg.Addr)
	str("libmpv", &cfg.LibmpvPath)
	str("media-dir", &cfg.MediaDir)
	str("engine-log-level", &cfg.EngineLogLevel)
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	if f.Changed("cors-origins") {
		v, _ := f.GetString("cors-origins")
		cfg.CORSOrigins = splitCSV(v)
	}
	if f.Changed("poll-timeout") {
		d, err := f.GetDuration("poll-timeout")
		if err != nil {
			return err
		}
		cfg.PollTimeoutMS = int(d.Milliseconds())
	}
	if f.Changed("teardown-timeout") {
		d, err := f.GetDuration("teardown-timeout")
		if err != nil {
			return err
		}
		cfg.TeardownTimeoutMS = int(d.Milliseconds())
	}
	if f.Changed("max-body-bytes") {
		n, err := f.GetInt64("max-body-bytes")
		if err != nil {
			return err
		}
		cfg.MaxBodyBytes = n
	}
	return nil
}

func applyDefaults(cfg *config.Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
