package server

import (
	"testing"
	"time"

	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
)

func TestAppRunShutdown(t *testing.T) {
	cfg, err := config.Parse([]byte("environment: test\nserver:\n  shutdown_timeout: 2s\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	srv := xhttp.NewServer(xhttp.Handlers{}, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	app := New(cfg, nil, srv, nil, nil)

	done := make(chan error, 1)
	go func() { done <- app.Run() }()
	app.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
