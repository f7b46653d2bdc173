// Package pricing turns a listing's pricing facets into one purchasable
// amount in base units and back into display strings.
//
// Resolve is a total function over (listing, mode, selection):
//
//	free        0 when a free tier or a Free-priced tier exists, else ErrNoFreeTierAvailable
//	perRequest  requestPackages[selection]
//	bundle      pricingTiers without Free/Custom entries, indexed by selection
//	enterprise  always ErrContactRequired
//
// A listing with no structured pricing resolves perRequest and bundle to its
// BasePrice. Labels are only parsed when a price has no canonical units; the
// leading numeric literal is read as a fixed-point decimal and scaled by the
// listing denomination (10^9 MIST per SUI), never through float64.
//
// FormatPrice renders units with a precision that depends on magnitude:
// 0 decimals from 100 coins, 2 from 1, 3 from 0.01 and 4 below that.
package pricing
