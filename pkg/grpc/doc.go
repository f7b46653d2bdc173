// Package grpc is the transport used by the availability probe.
//
// A listing whose endpoint speaks gRPC is checked with the standard health
// protocol (grpc.health.v1). The endpoint URL scheme picks the credentials:
//
//	https://rpc.example.com:443  TLS with system roots
//	http://10.0.0.5:7000         plaintext
//	10.0.0.5:7000                plaintext
//
// Example:
//
//	c, err := grpc.DialEndpoint(ctx, listing.Endpoint, 5*time.Second)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	status, err := c.Check(ctx, "")
package grpc
