package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gogrpc "google.golang.org/grpc"

	"github.com/shamank/infraproxy-sdk-go/pkg/grpc"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// ErrNoEndpoint is reported for listings without an endpoint.
var ErrNoEndpoint = errors.New("catalog: listing has no endpoint")

// Availability is the result of probing one listing.
type Availability struct {
	ListingID string        `json:"listingId"`
	Endpoint  string        `json:"endpoint"`
	Protocol  string        `json:"protocol"`
	Healthy   bool          `json:"healthy"`
	Status    string        `json:"status,omitempty"`
	Latency   time.Duration `json:"latency"`
	Err       error         `json:"-"`
}

// Prober checks listing endpoints. "grpc://" and "grpcs://" endpoints use the
// gRPC health protocol; everything else gets GET <endpoint>/heartbeat.
type Prober struct {
	timeout     time.Duration
	http        *http.Client
	dialOpts    []gogrpc.DialOption
	concurrency int
}

// ProbeOption configures a Prober.
type ProbeOption func(*Prober)

// WithProbeTimeout bounds each check.
func WithProbeTimeout(d time.Duration) ProbeOption { return func(p *Prober) { p.timeout = d } }

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ProbeOption { return func(p *Prober) { p.http = c } }

// WithDialOptions adds gRPC dial options.
func WithDialOptions(opts ...gogrpc.DialOption) ProbeOption {
	return func(p *Prober) { p.dialOpts = append(p.dialOpts, opts...) }
}

// WithConcurrency bounds the parallel checks of CheckAll.
func WithConcurrency(n int) ProbeOption { return func(p *Prober) { p.concurrency = n } }

// NewProber returns a Prober with a 5s timeout.
func NewProber(opts ...ProbeOption) *Prober {
	p := &Prober{timeout: 5 * time.Second, http: http.DefaultClient, concurrency: 8}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Check probes l's endpoint. Failures are reported in the result, not as an error.
func (p *Prober) Check(ctx context.Context, l *model.Listing) Availability {
	a := Availability{ListingID: l.ID, Endpoint: l.Endpoint}
	if strings.TrimSpace(l.Endpoint) == "" {
		a.Err = ErrNoEndpoint
		return a
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	switch {
	case strings.HasPrefix(l.Endpoint, "grpc://"), strings.HasPrefix(l.Endpoint, "grpcs://"):
		a.Protocol = "grpc"
		a.Status, a.Err = p.checkGRPC(ctx, l.Endpoint)
	default:
		a.Protocol = "http"
		a.Status, a.Err = p.checkHTTP(ctx, l.Endpoint)
	}
	a.Latency = time.Since(start)
	a.Healthy = a.Err == nil
	if a.Err != nil {
		zap.L().Debug("Listing endpoint unhealthy", zap.String("id", l.ID), zap.String("endpoint", l.Endpoint), zap.Error(a.Err))
	}
	return a
}

// CheckAll probes listings in parallel and returns results in input order.
func (p *Prober) CheckAll(ctx context.Context, listings []*model.Listing) []Availability {
	out := make([]Availability, len(listings))
	var g errgroup.Group
	g.SetLimit(max(p.concurrency, 1))
	for i, l := range listings {
		g.Go(func() error {
			out[i] = p.Check(ctx, l)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Prober) checkGRPC(ctx context.Context, endpoint string) (string, error) {
	target := strings.Replace(strings.Replace(endpoint, "grpcs://", "https://", 1), "grpc://", "http://", 1)
	c, err := grpc.NewClient(target, p.dialOpts...)
	if err != nil {
		return "", err
	}
	defer func() { _ = c.Close() }()
	status, err := c.Check(ctx, "")
	return status.String(), err
}

func (p *Prober) checkHTTP(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(endpoint, "/")+"/heartbeat", nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			zap.L().Error("failed to close heartbeat", zap.Error(err))
		}
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return resp.Status, fmt.Errorf("heartbeat failed with: %v", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// a bare 200 is still alive
		return resp.Status, nil
	}
	if s, ok := body["status"].(string); ok {
		return s, nil
	}
	return resp.Status, nil
}
