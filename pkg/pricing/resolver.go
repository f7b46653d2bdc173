package pricing

import (
	"errors"
	"fmt"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

var (
	// ErrNoFreeTierAvailable is returned for free mode on a listing without a free offer.
	ErrNoFreeTierAvailable = errors.New("pricing: no free tier available")
	// ErrInvalidSelection is returned when the selection index is out of bounds.
	ErrInvalidSelection = errors.New("pricing: invalid selection")
	// ErrUnparsablePrice is returned when a price label has no usable numeric literal.
	ErrUnparsablePrice = errors.New("pricing: unparsable price")
	// ErrContactRequired is returned for enterprise pricing. It is a terminal
	// branch, not a failure: callers offer a contact action instead of a purchase.
	ErrContactRequired = errors.New("pricing: contact required")
	// ErrUnknownMode is returned for a mode outside free, perRequest, bundle and enterprise.
	ErrUnknownMode = errors.New("pricing: unknown mode")
)

// DefaultContactLabel is shown for enterprise offerings without their own label.
const DefaultContactLabel = "Contact Sales"

// Resolver resolves listing selections into prices. Every listing is priced
// in its own denomination, the one its Units were normalized with.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver { return &Resolver{} }

// Denomination returns the denomination used for l.
func (r *Resolver) Denomination(l *model.Listing) model.Denomination {
	return model.DenominationOf(l)
}

// Select returns the offering a (mode, selection) pair designates. For
// enterprise mode it returns the enterprise offering together with
// ErrContactRequired.
func (r *Resolver) Select(l *model.Listing, mode model.Mode, selection int) (model.Offering, error) {
	switch mode {
	case model.ModeFree:
		if l.Free != nil {
			return l.Free, nil
		}
		for _, t := range l.Tiers {
			if t.Price.IsFree() {
				return t, nil
			}
		}
		return nil, ErrNoFreeTierAvailable

	case model.ModePerRequest:
		if l.IsEmpty() {
			return model.BasePrice{Units: l.BasePrice}, nil
		}
		if selection < 0 || selection >= len(l.Packages) {
			return nil, fmt.Errorf("%w: package %d of %d", ErrInvalidSelection, selection, len(l.Packages))
		}
		return l.Packages[selection], nil

	case model.ModeBundle:
		if l.IsEmpty() {
			return model.BasePrice{Units: l.BasePrice}, nil
		}
		tiers := l.BundleTiers()
		if selection < 0 || selection >= len(tiers) {
			return nil, fmt.Errorf("%w: tier %d of %d", ErrInvalidSelection, selection, len(tiers))
		}
		return tiers[selection], nil

	case model.ModeEnterprise:
		if l.Enterprise != nil {
			return l.Enterprise, ErrContactRequired
		}
		if t, ok := l.CustomTier(); ok {
			return t, ErrContactRequired
		}
		return &model.EnterpriseTier{Name: "Enterprise", ContactLabel: DefaultContactLabel}, ErrContactRequired
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// PriceOf returns the amount of an offering in base units of denom.
func PriceOf(o model.Offering, denom model.Denomination) (model.PriceUnits, error) {
	switch o := o.(type) {
	case *model.FreeTier:
		return 0, nil
	case model.RequestPackage:
		return unitsOf(o.Price, denom)
	case model.PricingTier:
		switch {
		case o.Price.IsFree():
			return 0, nil
		case o.Price.IsCustom():
			return 0, ErrContactRequired
		}
		return unitsOf(o.Price, denom)
	case *model.EnterpriseTier:
		return 0, ErrContactRequired
	case model.BasePrice:
		return o.Units, nil
	}
	return 0, fmt.Errorf("pricing: unsupported offering %T", o)
}

// Resolve returns the price of the offering designated by mode and selection.
func (r *Resolver) Resolve(l *model.Listing, mode model.Mode, selection int) (model.PriceUnits, error) {
	o, err := r.Select(l, mode, selection)
	if err != nil {
		return 0, err
	}
	return PriceOf(o, r.Denomination(l))
}

func unitsOf(p model.Price, denom model.Denomination) (model.PriceUnits, error) {
	if p.Units != nil {
		return *p.Units, nil
	}
	u, err := denom.ParseLabel(p.Label)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrUnparsablePrice, p.Label, err)
	}
	return u, nil
}

// ContactLabel returns the call-to-action text for an enterprise offering.
func ContactLabel(o model.Offering) string {
	if e, ok := o.(*model.EnterpriseTier); ok && e.ContactLabel != "" {
		return e.ContactLabel
	}
	return DefaultContactLabel
}
