// Package catalog holds the listing side of the marketplace: the catalog
// store (memory, MongoDB and SQLite backends), the multi-facet Filter used to
// narrow listings before any price is resolved, provider intake of new
// listings, seeding, the verified-provider registry and the availability
// probe that checks a listing's endpoint.
//
// Filter is pure and order-preserving. All active predicates of a Criteria
// combine with AND and the zero Criteria is the identity:
//
//	budget := catalog.Filter(listings, catalog.Criteria{
//		Category:  "analytics",
//		PriceBand: catalog.BandBudget,
//	})
//
// Price bands compare the lowest resolvable entry price of a listing in whole
// coins: a free offer counts as 0, request packages and chargeable
// subscription tiers count at their price, and listings without structured
// pricing fall back to their base price.
package catalog
