package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

const (
	// IpfsPrefix is the URI scheme prefix recognized for IPFS content.
	IpfsPrefix = "ipfs://"
	// FilecoinPrefix is the URI scheme prefix recognized for Filecoin/Lighthouse content.
	FilecoinPrefix = "filecoin://"
)

var (
	// ErrNotConfigured is returned when no IPFS node was configured.
	ErrNotConfigured = errors.New("storage: ipfs client not configured")
	// ErrInvalidCID is returned for identifiers that do not parse as a CID.
	ErrInvalidCID = errors.New("storage: invalid cid")
	// ErrIntegrity is returned when fetched content does not hash to its CID.
	ErrIntegrity = errors.New("storage: content does not match cid")
)

// Fetcher retrieves content by CID.
type Fetcher interface {
	Fetch(ctx context.Context, cid string) ([]byte, error)
}

// Uploader stores content and returns its CID.
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// Client reads and writes listing documents.
type Client struct {
	ipfs       Fetcher
	uploader   Uploader
	lighthouse Fetcher
	timeout    time.Duration
}

// NewClient connects to the IPFS API at ipfsURL (optional) and the
// Lighthouse gateway at lighthouseURL.
func NewClient(ipfsURL, lighthouseURL string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{lighthouse: NewLighthouse(lighthouseURL, nil), timeout: timeout}
	if ipfsURL != "" {
		node, err := NewIPFSNode(ipfsURL, timeout)
		if err != nil {
			return nil, err
		}
		c.ipfs, c.uploader = node, node
	}
	return c, nil
}

// NewClientWith assembles a client from explicit backends.
func NewClientWith(ipfs Fetcher, uploader Uploader, lighthouse Fetcher) *Client {
	return &Client{ipfs: ipfs, uploader: uploader, lighthouse: lighthouse, timeout: 60 * time.Second}
}

// ReadFile fetches content identified by uri. "filecoin://" URIs go to the
// Lighthouse gateway; "ipfs://" URIs and bare CIDs go to IPFS.
func (c *Client) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hash := formatHash(uri)
	if hash == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCID, uri)
	}
	if strings.HasPrefix(uri, FilecoinPrefix) {
		if c.lighthouse == nil {
			return nil, errors.New("storage: lighthouse gateway not configured")
		}
		return c.lighthouse.Fetch(ctx, hash)
	}
	if c.ipfs == nil {
		return nil, ErrNotConfigured
	}
	return c.ipfs.Fetch(ctx, hash)
}

// UploadJSON serializes v to JSON and uploads it to IPFS.
// Returns the IPFS URI (ipfs://<cid>) on success.
func (c *Client) UploadJSON(ctx context.Context, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if c.uploader == nil {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	hash, err := c.uploader.Upload(ctx, data)
	if err != nil {
		return "", err
	}
	return IpfsPrefix + hash, nil
}

// PublishListing uploads the listing document and returns its URI. The
// listing itself is not modified; callers store the URI in MetadataURI.
func (c *Client) PublishListing(ctx context.Context, l *model.Listing) (string, error) {
	doc := *l
	doc.MetadataURI = ""
	uri, err := c.UploadJSON(ctx, &doc)
	if err != nil {
		return "", fmt.Errorf("publish listing %s: %w", l.ID, err)
	}
	zap.L().Debug("Published listing document", zap.String("id", l.ID), zap.String("uri", uri))
	return uri, nil
}

// ReadListing fetches and decodes a listing document.
func (c *Client) ReadListing(ctx context.Context, uri string) (*model.Listing, error) {
	data, err := c.ReadFile(ctx, uri)
	if err != nil {
		return nil, err
	}
	var l model.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode listing document %s: %w", uri, err)
	}
	l.MetadataURI = uri
	return &l, nil
}

var nonCIDChars = regexp.MustCompile("[^a-zA-Z0-9=]")

// formatHash removes known URI scheme prefixes and any character that cannot
// appear in a CID.
func formatHash(hash string) string {
	hash = strings.Replace(hash, IpfsPrefix, "", -1)
	hash = strings.Replace(hash, FilecoinPrefix, "", -1)
	return nonCIDChars.ReplaceAllString(hash, "")
}
