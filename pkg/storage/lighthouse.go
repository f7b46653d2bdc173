package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Lighthouse fetches content from a Lighthouse HTTP gateway. The CID is
// appended to the base URL, so keep the trailing slash
// ("https://gateway.lighthouse.storage/ipfs/").
type Lighthouse struct {
	base   string
	client *http.Client
}

// NewLighthouse returns a gateway fetcher. A nil client uses http.DefaultClient.
func NewLighthouse(base string, client *http.Client) *Lighthouse {
	if client == nil {
		client = http.DefaultClient
	}
	return &Lighthouse{base: base, client: client}
}

func (l *Lighthouse) Fetch(ctx context.Context, cid string) ([]byte, error) {
	zap.L().Debug("Getting lighthouse file", zap.String("cid", cid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base+cid, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lighthouse %s: status %d", cid, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
