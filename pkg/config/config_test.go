package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Source.Type != SourceSynthetic || c.Server.Port != 8080 || c.Forecast.Epochs != 20 || c.Forecast.Lookback != 60 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Source.Timeout != 15*time.Second || c.Forecast.MaxHorizon != 30 {
		t.Fatalf("unexpected timeouts %v %d", c.Source.Timeout, c.Forecast.MaxHorizon)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"no env":         "source:\n  type: synthetic\n",
		"bad source":     "environment: test\nsource:\n  type: csv\n",
		"alpaca no keys": "environment: test\nsource:\n  type: alpaca\n",
		"sqlite no path": "environment: test\nsource:\n  type: sqlite\n",
		"horizon":        "environment: test\nforecast:\n  max_horizon: 40\n",
		"redis no addr":  "environment: test\ncache:\n  redis:\n    enabled: true\n",
		"prewarm":        "environment: test\nprewarm:\n  enabled: true\n",
		"yaml":           "environment: [",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	env := map[string]string{
		"SOURCE_TYPE":       "alpaca",
		"ALPACA_API_KEY":    "k",
		"ALPACA_API_SECRET": "s",
		"REDIS_ADDR":        "localhost:6379",
		"FORECAST_SEED":     "42",
		"SERVER_PORT":       "9090",
		"LOG_LEVEL":         "debug",
	}
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("env: %v", err)
	}
	if c.Source.Type != SourceAlpaca || c.Source.Alpaca.APIKey != "k" || c.Forecast.Seed != 42 || c.Server.Port != 9090 {
		t.Fatalf("env not applied: %+v", c)
	}
	if !c.Cache.Redis.Enabled || c.Logger.Level != "debug" {
		t.Fatalf("redis/logger not applied")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := c.applyEnv(func(k string) string {
		if k == "FORECAST_SEED" {
			return "abc"
		}
		return ""
	}); err == nil {
		t.Fatal("expected seed parse error")
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "environment: test\nserver:\n  port: 8081\nforecast:\n  model: linear_trend\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SERVER_PORT", "8082")
	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8082 || c.Forecast.Model != "linear_trend" {
		t.Fatalf("unexpected config %+v", c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
