// Package grpc dials listing endpoints and runs the standard gRPC health
// protocol against them. The endpoint scheme decides transport security.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ErrNotServing is returned by Check when the endpoint reports a status other
// than SERVING.
var ErrNotServing = errors.New("grpc: endpoint not serving")

// Client wraps a connection to one listing endpoint.
type Client struct {
	// GRPC is the underlying client connection.
	GRPC *grpc.ClientConn `json:"-"`
}

// NewClient creates a client for endpoint without waiting for the connection:
//   - "https://": TLS (system defaults)
//   - "http://":  insecure
//   - no scheme:  insecure
//
// Extra dial options are appended after the transport credentials.
func NewClient(endpoint string, opts ...grpc.DialOption) (*Client, error) {
	addr, creds := grpcCredsFromEndpoint(endpoint)
	conn, err := grpc.NewClient(addr, append([]grpc.DialOption{creds}, opts...)...)
	if err != nil {
		zap.L().Error("Failed to create grpc client", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	conn.Connect()
	return &Client{GRPC: conn}, nil
}

// DialEndpoint creates a client and blocks until the connection is ready or
// timeout elapses.
func DialEndpoint(ctx context.Context, endpoint string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	c, err := NewClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		s := c.GRPC.GetState()
		if s == connectivity.Ready {
			return c, nil
		}
		if !c.GRPC.WaitForStateChange(ctx, s) {
			_ = c.Close()
			return nil, fmt.Errorf("dial %s: %w", endpoint, ctx.Err())
		}
	}
}

// Check calls grpc.health.v1.Health/Check for service ("" is the whole server).
func (c *Client) Check(ctx context.Context, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	resp, err := grpc_health_v1.NewHealthClient(c.GRPC).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, fmt.Errorf("grpc heartbeat failed: %w", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return resp.GetStatus(), fmt.Errorf("%w: %s", ErrNotServing, resp.GetStatus())
	}
	return resp.GetStatus(), nil
}

// Close shuts down the underlying gRPC connection.
// It is safe to call on a nil receiver or when GRPC is nil.
func (c *Client) Close() error {
	if c == nil || c.GRPC == nil {
		return nil
	}
	return c.GRPC.Close()
}

// grpcCredsFromEndpoint derives a dial address and dial option from an endpoint URL.
// "https://" enables TLS; "http://" and bare addresses use insecure credentials.
func grpcCredsFromEndpoint(endpoint string) (string, grpc.DialOption) {
	if strings.HasPrefix(endpoint, "https://") {
		return strings.TrimPrefix(endpoint, "https://"), grpc.WithTransportCredentials(credentials.NewTLS(nil))
	}
	if strings.HasPrefix(endpoint, "http://") {
		return strings.TrimPrefix(endpoint, "http://"), grpc.WithTransportCredentials(insecure.NewCredentials())
	}
	return endpoint, grpc.WithTransportCredentials(insecure.NewCredentials())
}
