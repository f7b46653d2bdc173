package model

import (
	"errors"
	"fmt"
)

// ErrMalformedPricing is returned at ingestion for prices that are neither a
// non-negative number nor a Free/Custom sentinel. Such listings are rejected
// rather than defaulted.
var ErrMalformedPricing = errors.New("model: malformed pricing")

// NormalizePricing validates every price-bearing field of l and fills the
// canonical Units of numeric prices from their labels using the listing's
// denomination. Prices that already carry Units are left untouched.
func NormalizePricing(l *Listing) error {
	denom := DenominationOf(l)
	for i := range l.Packages {
		p := &l.Packages[i]
		path := fmt.Sprintf("requestPackages[%d]", i)
		if p.Requests == 0 {
			return fmt.Errorf("%w: %s.requests must be positive", ErrMalformedPricing, path)
		}
		if p.Price.IsCustom() {
			return fmt.Errorf("%w: %s.price cannot be Custom", ErrMalformedPricing, path)
		}
		if err := normalizePrice(&p.Price, denom, path+".price"); err != nil {
			return err
		}
	}
	for i := range l.Tiers {
		if err := normalizePrice(&l.Tiers[i].Price, denom, fmt.Sprintf("pricingTiers[%d].price", i)); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePricing checks l without modifying it.
func ValidatePricing(l *Listing) error {
	cp := *l
	cp.Packages = append([]RequestPackage(nil), l.Packages...)
	cp.Tiers = append([]PricingTier(nil), l.Tiers...)
	return NormalizePricing(&cp)
}

func normalizePrice(p *Price, denom Denomination, path string) error {
	if p.Units != nil {
		return nil
	}
	switch p.Tag {
	case PriceFree:
		zero := PriceUnits(0)
		p.Units = &zero
		return nil
	case PriceCustom:
		return nil
	}
	u, err := denom.ParseLabel(p.Label)
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrMalformedPricing, path, p.Label, err)
	}
	p.Units = &u
	return nil
}
