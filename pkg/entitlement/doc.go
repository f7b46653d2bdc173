// Package entitlement resolves a user's current balance for a service by
// querying the ledger.
//
// Client.Get answers from a per-(user, service) cache with a fixed staleness
// window (30s by default) and otherwise issues a read-only ledger call.
// Concurrent misses for the same key share one ledger round trip.
//
//	c := entitlement.NewClient(gateway, registryAddr)
//	e, err := c.Get(ctx, user, serviceID)
//	if err != nil {
//		// transport failure or ctx cancellation; nothing was cached
//	}
//	if e == nil {
//		// no entitlement yet
//	}
//
// A ledger NotFound and an undecodable result both yield (nil, nil): a user
// who never purchased is indistinguishable from one whose purchase has not
// been indexed yet. Transport errors and cancellations are returned and never
// written to the cache.
//
// Refresh bypasses the cache and replaces the entry; purchase code calls it
// after a confirmed transaction. Poller re-runs Refresh for watched keys on a
// fixed interval and is independent of the query itself.
package entitlement
