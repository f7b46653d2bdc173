package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

// IPFSNode talks to a Kubo node over its HTTP RPC API.
type IPFSNode struct {
	api *rpc.HttpApi
}

// NewIPFSNode constructs a Kubo HTTP API client pointed at url.
func NewIPFSNode(url string, timeout time.Duration) (*IPFSNode, error) {
	api, err := rpc.NewURLApiWithClient(url, &http.Client{Timeout: timeout})
	if err != nil {
		zap.L().Error("Connection failed to IPFS", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("connect ipfs %s: %w", url, err)
	}
	return &IPFSNode{api: api}, nil
}

// Fetch retrieves content with `ipfs cat`. Raw-leaf CIDs (the form Upload
// produces) are verified against the returned bytes.
func (n *IPFSNode) Fetch(ctx context.Context, hash string) (content []byte, err error) {
	c, err := cid.Decode(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCID, hash, err)
	}
	zap.L().Debug("Hash used to retrieve from IPFS", zap.String("hash", hash))

	resp, err := n.api.Request("cat", c.String()).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", hash, err)
	}
	defer func(resp *rpc.Response) {
		if cerr := resp.Close(); cerr != nil {
			zap.L().Error("error closing response in ipfs", zap.String("hash", hash), zap.Error(cerr))
		}
	}(resp)
	if resp.Error != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", hash, resp.Error)
	}

	content, err = io.ReadAll(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("ipfs cat %s: read: %w", hash, err)
	}
	if err := verify(c, content); err != nil {
		return nil, err
	}
	return content, nil
}

// Upload adds data as a single raw block (CIDv1) and returns its CID.
func (n *IPFSNode) Upload(ctx context.Context, data []byte) (string, error) {
	resp, err := n.api.Request("add").
		Option("cid-version", 1).
		Option("raw-leaves", true).
		Option("pin", true).
		FileBody(bytes.NewReader(data)).
		Send(ctx)
	if err != nil {
		return "", fmt.Errorf("ipfs add: %w", err)
	}
	defer func(resp *rpc.Response) {
		if cerr := resp.Close(); cerr != nil {
			zap.L().Error("error closing ipfs response", zap.Error(cerr))
		}
	}(resp)
	if resp.Error != nil {
		return "", fmt.Errorf("ipfs add: %w", resp.Error)
	}

	var out struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Output).Decode(&out); err != nil {
		return "", fmt.Errorf("ipfs add: decode response: %w", err)
	}
	if _, err := cid.Decode(out.Hash); err != nil {
		return "", fmt.Errorf("%w: node returned %q", ErrInvalidCID, out.Hash)
	}
	zap.L().Debug("Successfully uploaded to IPFS", zap.String("hash", out.Hash))
	return out.Hash, nil
}

// verify checks raw-leaf CIDs; chunked (dag-pb) content cannot be rehashed
// from its bytes alone and is accepted as is.
func verify(c cid.Cid, content []byte) error {
	p := c.Prefix()
	if p.Codec != cid.Raw {
		return nil
	}
	got, err := p.Sum(content)
	if err != nil {
		return fmt.Errorf("rehash %s: %w", c, err)
	}
	if !got.Equals(c) {
		zap.L().Error("IPFS hash verification failed",
			zap.String("expectedHash", c.String()),
			zap.String("hashFromIPFSContent", got.String()))
		return fmt.Errorf("%w: want %s, got %s", ErrIntegrity, c, got)
	}
	return nil
}
