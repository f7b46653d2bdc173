package market

import (
	"context"

	"github.com/shamank/infraproxy-sdk-go/pkg/account"
	"github.com/shamank/infraproxy-sdk-go/pkg/entitlement"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
	"github.com/shamank/infraproxy-sdk-go/pkg/purchase"
)

// Purchase buys an offering of listingID as the configured signer. A second
// call for the same listing while the first is running fails with
// ErrPurchaseInFlight. Errors follow purchase.Coordinator.Purchase.
func (c *Core) Purchase(ctx context.Context, listingID string, mode model.Mode, selection int) (*purchase.Outcome, error) {
	if c.coordinator == nil {
		return nil, ErrReadOnly
	}
	user := c.signer.Address()
	key := user + "/" + listingID

	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return nil, ErrPurchaseInFlight
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}()

	out, err := c.coordinator.Purchase(ctx, user, listingID, mode, selection)
	if err == nil && out.Kind == purchase.OutcomeConfirmed {
		c.poller.Watch(user, out.ServiceID)
	}
	return out, err
}

// Entitlement returns user's balance for serviceID, or nil when the ledger
// has none. An empty user means the signer.
func (c *Core) Entitlement(ctx context.Context, user string, serviceID uint64) (*model.Entitlement, error) {
	if user == "" {
		if c.signer == nil {
			return nil, ErrReadOnly
		}
		user = c.signer.Address()
	}
	return c.entitlements.Get(ctx, user, serviceID)
}

// FormatEntitlement renders an entitlement amount in the catalog currency.
func (c *Core) FormatEntitlement(e *model.Entitlement) string {
	if e == nil {
		return entitlement.FormatEntitlementAmount(0, c.denom)
	}
	return entitlement.FormatEntitlementAmount(e.Amount, c.denom)
}

// Watch adds (user, serviceID) to the background refresh set.
func (c *Core) Watch(user string, serviceID uint64) { c.poller.Watch(user, serviceID) }

// Unwatch removes (user, serviceID) from the background refresh set.
func (c *Core) Unwatch(user string, serviceID uint64) { c.poller.Unwatch(user, serviceID) }

// StartPolling refreshes watched entitlements until ctx ends or Close is called.
func (c *Core) StartPolling(ctx context.Context) error { return c.poller.Start(ctx) }

// Login signs an access proof with the signer and ensures a directory entry
// for its address.
func (c *Core) Login(ctx context.Context) (*model.User, *account.AccessProof, error) {
	if c.signer == nil {
		return nil, nil, ErrReadOnly
	}
	proof, err := account.SignAccess(ctx, c.signer, c.now())
	if err != nil {
		return nil, nil, err
	}
	u, _, err := c.users.Ensure(ctx, proof.Address, "", "")
	if err != nil {
		return nil, nil, err
	}
	return u, proof, nil
}

// Users exposes the account directory.
func (c *Core) Users() *account.Directory { return c.users }

// AuthContext signs a fresh access proof and attaches it to the outgoing
// gRPC metadata of ctx, for calls to a listing's endpoint.
func (c *Core) AuthContext(ctx context.Context) (context.Context, error) {
	if c.signer == nil {
		return nil, ErrReadOnly
	}
	proof, err := account.SignAccess(ctx, c.signer, c.now())
	if err != nil {
		return nil, err
	}
	return proof.AppendToOutgoingContext(ctx), nil
}
