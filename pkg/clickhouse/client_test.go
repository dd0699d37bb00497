package clickhouse

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch.local",
		Port:        9000,
		Database:    "market",
		User:        "reader",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 30 * time.Second,
	})
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %q: %v", dsn, err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/market" {
		t.Fatalf("dsn = %q", dsn)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Fatalf("password not preserved: %q", dsn)
	}
	if u.Query().Get("dial_timeout") != "5s" || u.Query().Get("max_execution_time") != "30" {
		t.Fatalf("query = %q", u.RawQuery)
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "h", Port: 8123, Database: "d", UseHTTP: true})
	if !strings.HasPrefix(dsn, "http://") {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(context.Background()); err == nil {
		t.Fatalf("expected error without host")
	}
}

func TestDailyPricesDDL(t *testing.T) {
	ddl := DailyPricesDDL("market.daily_prices")
	if !strings.Contains(ddl, "market.daily_prices") || !strings.Contains(ddl, "ORDER BY (ticker, day)") {
		t.Fatalf("ddl = %s", ddl)
	}
}
