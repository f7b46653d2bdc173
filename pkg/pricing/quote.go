package pricing

import (
	"errors"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// Quote is a resolved price ready for display.
type Quote struct {
	ListingID  string
	Mode       model.Mode
	Offering   string
	Units      model.PriceUnits
	Display    string
	PerRequest string
	// Contact is set instead of a price for enterprise offerings.
	Contact string
}

// IsContact reports whether the quote is a contact-sales action.
func (q *Quote) IsContact() bool { return q.Contact != "" }

// Quote resolves mode and selection and renders the result. Enterprise
// selections yield a contact quote and a nil error.
func (r *Resolver) Quote(l *model.Listing, mode model.Mode, selection int) (*Quote, error) {
	denom := r.Denomination(l)
	q := &Quote{ListingID: l.ID, Mode: mode}

	o, err := r.Select(l, mode, selection)
	if o != nil {
		q.Offering = o.OfferingName()
	}
	var units model.PriceUnits
	if err == nil {
		units, err = PriceOf(o, denom)
	}
	switch {
	case errors.Is(err, ErrContactRequired):
		q.Contact = ContactLabel(o)
		return q, nil
	case err != nil:
		return nil, err
	}

	q.Units = units
	q.Display = FormatPrice(units, denom)
	if p, ok := o.(model.RequestPackage); ok {
		q.PerRequest = PerRequestLabel(units, p.Requests, denom)
	}
	return q, nil
}
