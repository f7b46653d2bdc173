// Package grpcbuf runs in-memory gRPC servers for tests.
package grpcbuf

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

// StartServer spins up a bufconn-backed gRPC server exposing the standard
// health service, initially SERVING for the whole server.
func StartServer() (*grpc.Server, *bufconn.Listener, *health.Server) {
	lis := bufconn.Listen(bufSize)
	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	return srv, lis, hs
}

// Dial connects to the provided bufconn listener using the standard gRPC client stack.
func Dial(ctx context.Context, lis *bufconn.Listener, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	// bufconn has no TLS; passthrough keeps the custom dialer.
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	}
	base = append(base, opts...)
	return grpc.NewClient("passthrough://bufnet", base...)
}

// Dialer returns the dial option that routes any target to lis.
func Dialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() })
}
