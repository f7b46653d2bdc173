package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/blockchain"
	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
	"github.com/shamank/infraproxy-sdk-go/pkg/pricing"
)

// State is a step of a purchase attempt.
type State string

const (
	StateIdle          State = "idle"
	StatePriceResolved State = "price_resolved"
	StateSigned        State = "signed"
	StateSubmitted     State = "submitted"
	StateConfirmed     State = "confirmed"
	StateFailed        State = "failed"
)

// OutcomeKind is the terminal branch of a successful attempt.
type OutcomeKind string

const (
	OutcomeConfirmed       OutcomeKind = "confirmed"
	OutcomeFreeActivated   OutcomeKind = "free_activated"
	OutcomeContactRequired OutcomeKind = "contact_required"
)

// Outcome describes one purchase attempt.
type Outcome struct {
	AttemptID string
	Kind      OutcomeKind
	ListingID string
	ServiceID uint64
	Mode      model.Mode
	Offering  string
	Price     model.PriceUnits
	Display   string
	// Contact is the call to action of a ContactRequired outcome.
	Contact string
	Receipt *blockchain.Receipt
	// Entitlement is the balance read right after confirmation; nil when the
	// refresh failed or the ledger has not indexed the purchase yet.
	Entitlement *model.Entitlement
	Trace       []State
}

// Refresher re-reads an entitlement from the ledger, bypassing any cache.
type Refresher interface {
	Refresh(ctx context.Context, user string, serviceID uint64) (*model.Entitlement, error)
}

// Coordinator runs purchase attempts.
type Coordinator struct {
	listings      catalog.Reader
	resolver      *pricing.Resolver
	signer        blockchain.Signer
	gateway       blockchain.LedgerGateway
	refresher     Refresher
	target        string
	currency      *model.Denomination
	submitTimeout time.Duration
	log           *zap.Logger
	newID         func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithResolver replaces the default price resolver.
func WithResolver(r *pricing.Resolver) Option { return func(c *Coordinator) { c.resolver = r } }

// WithCurrency restricts paid purchases to listings priced in d, the
// denomination the ledger payment is made in.
func WithCurrency(d model.Denomination) Option { return func(c *Coordinator) { c.currency = &d } }

// WithSubmitTimeout bounds signing plus submission. Zero means the caller's
// context alone decides.
func WithSubmitTimeout(d time.Duration) Option { return func(c *Coordinator) { c.submitTimeout = d } }

// WithLogger sets the logger. Default: zap.L().
func WithLogger(l *zap.Logger) Option { return func(c *Coordinator) { c.log = l } }

// WithAttemptIDs replaces the attempt id generator.
func WithAttemptIDs(fn func() string) Option { return func(c *Coordinator) { c.newID = fn } }

// NewCoordinator returns a Coordinator paying target through signer and gateway.
func NewCoordinator(listings catalog.Reader, signer blockchain.Signer, gateway blockchain.LedgerGateway,
	refresher Refresher, target string, opts ...Option) *Coordinator {
	c := &Coordinator{
		listings:  listings,
		resolver:  pricing.NewResolver(),
		signer:    signer,
		gateway:   gateway,
		refresher: refresher,
		target:    target,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.L()
	}
	return c
}

// Purchase buys the offering of listingID designated by mode and selection
// for user. Pricing errors (ErrNoFreeTierAvailable, ErrInvalidSelection,
// ErrUnparsablePrice), ErrNotAccepting, ErrNotOnLedger and catalog errors
// are returned as-is. Failures after the price is resolved are
// *PurchaseError and come with the partial Outcome, whose Trace ends in
// StateFailed.
func (c *Coordinator) Purchase(ctx context.Context, user, listingID string, mode model.Mode, selection int) (*Outcome, error) {
	out := &Outcome{AttemptID: c.newID(), ListingID: listingID, Mode: mode, Trace: []State{StateIdle}}
	log := c.log.With(zap.String("attempt", out.AttemptID), zap.String("listing", listingID), zap.String("mode", string(mode)))

	l, err := c.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	out.ServiceID = l.LedgerID
	denom := c.resolver.Denomination(l)

	offering, err := c.resolver.Select(l, mode, selection)
	if offering != nil {
		out.Offering = offering.OfferingName()
	}
	var price model.PriceUnits
	if err == nil {
		price, err = pricing.PriceOf(offering, denom)
	}
	switch {
	case errors.Is(err, pricing.ErrContactRequired):
		out.Kind = OutcomeContactRequired
		out.Contact = pricing.ContactLabel(offering)
		log.Debug("Purchase needs sales contact", zap.String("contact", out.Contact))
		return out, nil
	case err != nil:
		return nil, err
	}
	if !l.AcceptingNewUsers {
		return nil, fmt.Errorf("%w: %s", ErrNotAccepting, l.ID)
	}
	out.Price = price
	out.Display = pricing.FormatPrice(price, denom)
	out.Trace = append(out.Trace, StatePriceResolved)

	if price == 0 {
		out.Kind = OutcomeFreeActivated
		log.Info("Free access activated", zap.String("user", user))
		return out, nil
	}
	if l.LedgerID == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotOnLedger, l.ID)
	}
	if c.currency != nil {
		if err := catalog.CheckCurrency(l, *c.currency); err != nil {
			return nil, err
		}
	}

	tx := &blockchain.Transaction{
		ID:        out.AttemptID,
		Target:    c.target,
		ServiceID: l.LedgerID,
		Payment:   uint64(price),
		Sender:    user,
	}
	receipt, perr := c.pay(ctx, tx, out)
	if perr != nil {
		out.Trace = append(out.Trace, StateFailed)
		log.Warn("Purchase failed", zap.String("kind", string(perr.Kind)), zap.Error(perr.Err))
		return out, perr
	}
	out.Kind = OutcomeConfirmed
	out.Receipt = receipt
	out.Trace = append(out.Trace, StateConfirmed)
	log.Info("Purchase confirmed",
		zap.String("tx", receipt.TxHash),
		zap.Uint64("block", receipt.Block),
		zap.String("price", out.Display))

	// confirm first, then read the new balance
	if c.refresher != nil {
		e, err := c.refresher.Refresh(ctx, user, l.LedgerID)
		if err != nil {
			log.Warn("Entitlement refresh after purchase failed", zap.Error(err))
		}
		out.Entitlement = e
	}
	return out, nil
}

func (c *Coordinator) pay(ctx context.Context, tx *blockchain.Transaction, out *Outcome) (*blockchain.Receipt, *PurchaseError) {
	if c.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.submitTimeout)
		defer cancel()
	}

	stx, err := c.signer.SignTransaction(ctx, tx)
	if err != nil {
		return nil, signFailure(out.AttemptID, err)
	}
	out.Trace = append(out.Trace, StateSigned)

	out.Trace = append(out.Trace, StateSubmitted)
	receipt, err := c.gateway.Submit(ctx, stx)
	if err != nil {
		return nil, submitFailure(out.AttemptID, err)
	}
	if receipt == nil {
		return nil, submitFailure(out.AttemptID, errors.New("ledger returned no receipt"))
	}
	return receipt, nil
}
