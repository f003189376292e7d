package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	var out bytes.Buffer
	cfg, err := Load([]string{"--target", "10.0.0.5", "--proxy", "http://127.0.0.1:3128"}, nil, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Threads != DefaultThreads || cfg.Timeout != DefaultTimeout || cfg.Interval != 0 || cfg.MaxPasses != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	eng := cfg.Engine()
	if eng.Target != "10.0.0.5" || eng.Threads != 100 || eng.Timeout != 10*time.Second || eng.Ports != nil {
		t.Fatalf("unexpected engine config: %+v", eng)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := map[string][]string{
		"nothing":     nil,
		"no proxy":    {"--target", "10.0.0.5"},
		"no target":   {"--proxy", "http://127.0.0.1:3128"},
		"help":        {"-h"},
		"empty proxy": {"--target", "10.0.0.5", "--proxy", ""},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := Load(args, nil, &out)
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected ErrUsage, got %v", err)
			}
			if !strings.Contains(out.String(), "Usage: sposeGo") {
				t.Fatalf("usage not printed: %q", out.String())
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][]string{
		"zero threads":  {"--threads", "0"},
		"zero timeout":  {"--timeout", "0"},
		"bad scheme":    {"--proxy", "ftp://127.0.0.1:21"},
		"no proxy host": {"--proxy", "http://"},
		"negative pass": {"--max-passes", "-1"},
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			args := append([]string{"--target", "10.0.0.5", "--proxy", "http://127.0.0.1:3128"}, extra...)
			_, err := Load(args, nil, &bytes.Buffer{})
			if err == nil || errors.Is(err, ErrUsage) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoad_UnparsableFlagReportedOnce(t *testing.T) {
	cases := map[string][]string{
		"not a number":  {"--threads", "many"},
		"unknown flag":  {"--ports", "1-100"},
		"missing value": {"--timeout"},
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			args := append([]string{"--target", "10.0.0.5", "--proxy", "http://127.0.0.1:3128"}, extra...)
			_, err := Load(args, nil, &out)
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected ErrUsage, got %v", err)
			}
			if !strings.Contains(out.String(), "Usage: sposeGo") {
				t.Fatalf("usage not printed: %q", out.String())
			}
		})
	}

	var out bytes.Buffer
	_, _ = Load([]string{"--target", "t", "--proxy", "http://p:3128", "--threads", "many"}, nil, &out)
	if n := strings.Count(out.String(), `invalid value "many"`); n != 1 {
		t.Fatalf("parse error printed %d times: %q", n, out.String())
	}
}

func TestLoad_EnvFallbackAndOverride(t *testing.T) {
	env := map[string]string{
		EnvTarget:   "192.168.1.10",
		EnvProxy:    "socks5://127.0.0.1:1080",
		EnvThreads:  "16",
		EnvTimeout:  "3",
		EnvInterval: "5",
	}
	cfg, err := Load(nil, env, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target != "192.168.1.10" || cfg.Threads != 16 || cfg.Timeout != 3*time.Second || cfg.Interval != 5*time.Second {
		t.Fatalf("env not applied: %+v", cfg)
	}

	cfg, err = Load([]string{"--threads", "8", "--target", "10.0.0.5"}, env, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Threads != 8 || cfg.Target != "10.0.0.5" || cfg.Proxy != "socks5://127.0.0.1:1080" {
		t.Fatalf("flags must override env: %+v", cfg)
	}

	if _, err := Load(nil, map[string]string{EnvThreads: "lots"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for non-numeric env value")
	}
}

func TestEnviron(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SPOSE_TARGET=10.9.9.9\nSPOSE_THREADS=7\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(EnvThreads, "42")

	env, err := Environ(path)
	if err != nil {
		t.Fatalf("environ: %v", err)
	}
	if env[EnvTarget] != "10.9.9.9" {
		t.Fatalf("dotenv value missing: %q", env[EnvTarget])
	}
	if env[EnvThreads] != "42" {
		t.Fatalf("process env must win over dotenv, got %q", env[EnvThreads])
	}

	if _, err := Environ(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing dotenv file must be ignored: %v", err)
	}
}
