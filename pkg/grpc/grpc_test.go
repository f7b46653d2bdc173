package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/shamank/infraproxy-sdk-go/internal/testutil/grpcbuf"
)

func TestGrpcCredsFromEndpoint(t *testing.T) {
	tests := []struct {
		in, addr string
	}{
		{in: "https://rpc.example.com:443", addr: "rpc.example.com:443"},
		{in: "http://127.0.0.1:7000", addr: "127.0.0.1:7000"},
		{in: "127.0.0.1:7000", addr: "127.0.0.1:7000"},
	}
	for _, tt := range tests {
		addr, opt := grpcCredsFromEndpoint(tt.in)
		if addr != tt.addr || opt == nil {
			t.Fatalf("grpcCredsFromEndpoint(%q) = %q, %v", tt.in, addr, opt)
		}
	}
}

func TestCheck_Serving(t *testing.T) {
	srv, lis, health := grpcbuf.StartServer()
	defer srv.Stop()

	conn, err := grpcbuf.Dial(context.Background(), lis)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c := &Client{GRPC: conn}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := c.Check(ctx, "")
	if err != nil || status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("Check = %v, %v", status, err)
	}

	health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	if _, err := c.Check(ctx, ""); !errors.Is(err, ErrNotServing) {
		t.Fatalf("expected ErrNotServing, got %v", err)
	}
}

func TestClose_NilSafe(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := (&Client{}).Close(); err != nil {
		t.Fatal(err)
	}
}
