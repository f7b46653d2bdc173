package market

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
	"github.com/shamank/infraproxy-sdk-go/pkg/pricing"
	"github.com/shamank/infraproxy-sdk-go/pkg/storage"
)

// Listings returns the catalog filtered by criteria, in store order.
func (c *Core) Listings(ctx context.Context, criteria catalog.Criteria) ([]*model.Listing, error) {
	all, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(all, criteria), nil
}

// Listing returns one listing. Missing ids fail with catalog.ErrNotFound.
func (c *Core) Listing(ctx context.Context, id string) (*model.Listing, error) {
	return c.store.Get(ctx, id)
}

// Quote prices the offering designated by mode and selection without buying it.
func (c *Core) Quote(ctx context.Context, listingID string, mode model.Mode, selection int) (*pricing.Quote, error) {
	l, err := c.store.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return c.resolver.Quote(l, mode, selection)
}

// Register turns provider input into a listing, applies the verified
// registry and stores it. When IPFS publishing is configured the listing
// document is published too. Listings priced outside the catalog currency
// fail with catalog.ErrCurrencyMismatch.
func (c *Core) Register(ctx context.Context, in catalog.ProviderInput) (*model.Listing, error) {
	l, err := catalog.NewListing(in, c.now())
	if err != nil {
		return nil, err
	}
	if err := catalog.CheckCurrency(l, c.denom); err != nil {
		return nil, err
	}
	catalog.MarkVerified([]*model.Listing{l}, catalog.VerifiedIDs...)
	if c.storage != nil {
		_, err := c.Publish(ctx, l)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, storage.ErrNotConfigured) {
			zap.L().Warn("listing stored without metadata document", zap.String("id", l.ID), zap.Error(err))
		}
	}
	if err := c.store.Put(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Publish uploads l's document to IPFS, records the returned URI in
// MetadataURI and stores the listing.
func (c *Core) Publish(ctx context.Context, l *model.Listing) (string, error) {
	if c.storage == nil {
		return "", storage.ErrNotConfigured
	}
	if err := catalog.CheckCurrency(l, c.denom); err != nil {
		return "", err
	}
	if err := model.NormalizePricing(l); err != nil {
		return "", err
	}
	uri, err := c.storage.PublishListing(ctx, l)
	if err != nil {
		return "", err
	}
	l.MetadataURI = uri
	l.UpdatedAt = c.now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.UpdatedAt
	}
	if err := c.store.Put(ctx, l); err != nil {
		return "", fmt.Errorf("store published listing: %w", err)
	}
	return uri, nil
}

// Import reads a listing document from uri ("ipfs://", "filecoin://" or a
// bare CID) and upserts it into the catalog.
func (c *Core) Import(ctx context.Context, uri string) (*model.Listing, error) {
	if c.storage == nil {
		return nil, storage.ErrNotConfigured
	}
	l, err := c.storage.ReadListing(ctx, uri)
	if err != nil {
		return nil, err
	}
	if err := catalog.CheckCurrency(l, c.denom); err != nil {
		return nil, err
	}
	if _, err := catalog.Seed(ctx, c.store, []*model.Listing{l}, c.now()); err != nil {
		return nil, err
	}
	return c.store.Get(ctx, l.ID)
}

// Seed upserts listings into the catalog. Nothing is written when any
// listing is priced outside the catalog currency.
func (c *Core) Seed(ctx context.Context, listings []*model.Listing) (catalog.SeedReport, error) {
	for _, l := range listings {
		if err := catalog.CheckCurrency(l, c.denom); err != nil {
			return catalog.SeedReport{}, err
		}
	}
	catalog.MarkVerified(listings, catalog.VerifiedIDs...)
	return catalog.Seed(ctx, c.store, listings, c.now())
}

// CheckAvailability probes the endpoints of the listings matching criteria.
func (c *Core) CheckAvailability(ctx context.Context, criteria catalog.Criteria) ([]catalog.Availability, error) {
	ls, err := c.Listings(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return c.prober.CheckAll(ctx, ls), nil
}

// CheckListings probes the endpoints of the given listings.
func (c *Core) CheckListings(ctx context.Context, ids ...string) ([]catalog.Availability, error) {
	ls := make([]*model.Listing, 0, len(ids))
	for _, id := range ids {
		l, err := c.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		ls = append(ls, l)
	}
	return c.prober.CheckAll(ctx, ls), nil
}
