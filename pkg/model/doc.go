// Package model defines the data structures of the infrastructure marketplace.
//
// This package contains:
//   - Listing, the catalog entry for a service
//   - PricingModel and its four facets (FreeTier, RequestPackage,
//     PricingTier, EnterpriseTier)
//   - Price, Denomination and the PriceUnits base-unit amount
//   - Entitlement, the read-only projection of a ledger balance
//   - User, a marketplace account keyed by wallet address
//
// # Pricing Facets
//
// A listing may carry any subset of the four facets at the same time:
//
//	type PricingModel struct {
//		Free       *FreeTier        // included requests at no cost
//		Packages   []RequestPackage // one-time request bundles
//		Tiers      []PricingTier    // recurring subscriptions
//		Enterprise *EnterpriseTier  // contact sales, never a price
//	}
//
// A listing with no facet at all is priced by Listing.BasePrice.
//
// # Prices
//
// Provider documents store prices as labels such as "0.5 SUI", "Free" or
// "Custom". NormalizePricing parses every label once, at ingestion, into
// canonical PriceUnits using fixed-point decimal arithmetic:
//
//	l := &model.Listing{Currency: "SUI", PricingModel: model.PricingModel{
//		Packages: []model.RequestPackage{{Name: "1000 Requests", Requests: 1000, Price: model.NewPrice("4 SUI")}},
//	}}
//	if err := model.NormalizePricing(l); err != nil { // errors.Is(err, model.ErrMalformedPricing)
//		return err
//	}
//	// *l.Packages[0].Price.Units == 4_000_000_000
//
// Conversion never rounds. Amounts finer than one base unit are rejected.
//
// # Offerings
//
// Offering is a closed sum type over the facet a purchase resolved to
// (*FreeTier, RequestPackage, PricingTier, *EnterpriseTier, BasePrice), so
// consumers can switch over it exhaustively.
//
// # JSON Compatibility
//
// Field names follow the catalog documents (is_verified, freeTier,
// requestPackages, pricingTiers, enterpriseTier). basePrice is in base units;
// older documents carrying only price_ms (millionths of a coin) are scaled on
// decode. Listings decoded without acceptingNewUsers accept new users.
package model
