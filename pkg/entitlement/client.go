package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

const (
	// DefaultTTL is the staleness window of cached reads.
	DefaultTTL = 30 * time.Second
	// DefaultCacheSize bounds the number of cached (user, service) pairs.
	DefaultCacheSize = 4096
)

// Key identifies one entitlement.
type Key struct {
	User      string
	ServiceID uint64
}

func (k Key) String() string { return k.User + "/" + strconv.FormatUint(k.ServiceID, 10) }

// entry is a cached lookup. A nil Entitlement records "no entitlement yet".
type entry struct {
	e *model.Entitlement
}

// Client queries entitlements through a LedgerGateway.
type Client struct {
	gateway  blockchain.LedgerGateway
	registry string
	function string
	ttl      time.Duration
	size     int
	now      func() time.Time
	log      *zap.Logger

	cache *expirable.LRU[Key, entry]
	group singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithTTL sets the cache staleness window.
func WithTTL(d time.Duration) Option { return func(c *Client) { c.ttl = d } }

// WithCacheSize bounds the cache.
func WithCacheSize(n int) Option { return func(c *Client) { c.size = n } }

// WithFunction overrides the ledger read function name.
func WithFunction(fn string) Option { return func(c *Client) { c.function = fn } }

// WithNow sets the clock used to stamp FetchedAt.
func WithNow(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithLogger sets the logger. Default: zap.L().
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient returns a Client reading from registry through gateway.
func NewClient(gateway blockchain.LedgerGateway, registry string, opts ...Option) *Client {
	c := &Client{
		gateway:  gateway,
		registry: registry,
		function: blockchain.FnSubscriptionOf,
		ttl:      DefaultTTL,
		size:     DefaultCacheSize,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.L()
	}
	c.cache = expirable.NewLRU[Key, entry](c.size, nil, c.ttl)
	return c
}

// Get returns the entitlement of user for serviceID, or nil when the ledger
// has none. Cached values may be up to one TTL old.
func (c *Client) Get(ctx context.Context, user string, serviceID uint64) (*model.Entitlement, error) {
	k := Key{User: user, ServiceID: serviceID}
	if cached, ok := c.cache.Get(k); ok {
		return cached.e, nil
	}
	return c.load(ctx, k)
}

// Refresh re-queries the ledger, bypassing the cache, and replaces the cached
// value on success. A failed or cancelled refresh leaves the cache as it was.
func (c *Client) Refresh(ctx context.Context, user string, serviceID uint64) (*model.Entitlement, error) {
	k := Key{User: user, ServiceID: serviceID}
	c.group.Forget(k.String())
	return c.load(ctx, k)
}

// Invalidate drops the cached value for (user, serviceID).
func (c *Client) Invalidate(user string, serviceID uint64) {
	c.cache.Remove(Key{User: user, ServiceID: serviceID})
}

// Cached returns the cached value without touching the ledger.
func (c *Client) Cached(user string, serviceID uint64) (*model.Entitlement, bool) {
	v, ok := c.cache.Peek(Key{User: user, ServiceID: serviceID})
	return v.e, ok
}

func (c *Client) load(ctx context.Context, k Key) (*model.Entitlement, error) {
	for attempt := 0; ; attempt++ {
		ch := c.group.DoChan(k.String(), func() (any, error) {
			e, err := c.fetch(ctx, k)
			if err != nil {
				return nil, err
			}
			c.cache.Add(k, entry{e: e})
			return e, nil
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				// a shared flight cancelled by another caller; retry on our own context
				if attempt == 0 && isContextErr(res.Err) && ctx.Err() == nil {
					continue
				}
				return nil, res.Err
			}
			e, _ := res.Val.(*model.Entitlement)
			return e, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) fetch(ctx context.Context, k Key) (*model.Entitlement, error) {
	out, err := c.gateway.Query(ctx, ReadCall(c.registry, c.function, k))
	switch {
	case errors.Is(err, blockchain.ErrNotFound), errors.Is(err, blockchain.ErrMalformedResult):
		c.log.Debug("No entitlement on ledger", zap.String("key", k.String()), zap.Error(err))
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("query entitlement %s: %w", k, err)
	}

	amount, err := DecodeAmount(out)
	if err != nil {
		c.log.Warn("Undecodable entitlement", zap.String("key", k.String()), zap.Error(err))
		return nil, nil
	}
	return &model.Entitlement{
		User:      k.User,
		ServiceID: k.ServiceID,
		Amount:    amount,
		FetchedAt: c.now(),
	}, nil
}
