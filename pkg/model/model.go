// Package model defines the catalog data structures used by the SDK: listings,
// their pricing facets, ledger entitlements and users. These structs mirror
// the JSON documents kept in the catalog store and published to IPFS.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a catalog entry for an infrastructure service. Listings are
// never deleted; AcceptingNewUsers=false soft-retires them.
type Listing struct {
	ID              string   `json:"id"`
	LedgerID        uint64   `json:"ledgerId,omitempty"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	FullDescription string   `json:"fullDescription,omitempty"`
	Provider        string   `json:"provider"`
	ProviderAddress string   `json:"providerAddress,omitempty"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	Verified        bool     `json:"is_verified"`
	// AcceptingNewUsers defaults to true when absent from a document.
	AcceptingNewUsers bool `json:"acceptingNewUsers"`
	// BasePrice is used when the listing carries no structured pricing.
	BasePrice      PriceUnits `json:"basePrice"`
	Currency       string     `json:"currency,omitempty"`
	TokensAccepted []string   `json:"tokensAccepted,omitempty"`
	Endpoint       string     `json:"endpoint,omitempty"`
	DocsURL        string     `json:"docsUrl,omitempty"`
	MetadataURI    string     `json:"metadataUri,omitempty"`

	PricingModel

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON decodes a listing document, defaulting AcceptingNewUsers to
// true when the field is missing. Documents without basePrice may carry the
// web marketplace's price_ms, in millionths of a coin.
func (l *Listing) UnmarshalJSON(data []byte) error {
	type alias Listing
	aux := struct {
		*alias
		AcceptingNewUsers *bool            `json:"acceptingNewUsers"`
		BasePrice         *PriceUnits      `json:"basePrice"`
		PriceMs           *decimal.Decimal `json:"price_ms"`
	}{alias: (*alias)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.AcceptingNewUsers = aux.AcceptingNewUsers == nil || *aux.AcceptingNewUsers
	switch {
	case aux.BasePrice != nil:
		l.BasePrice = *aux.BasePrice
	case aux.PriceMs != nil:
		u, err := DenominationOf(l).FromMicro(*aux.PriceMs)
		if err != nil {
			return fmt.Errorf("%w: price_ms %s: %w", ErrMalformedPricing, aux.PriceMs, err)
		}
		l.BasePrice = u
	}
	return nil
}

// HasTag reports whether the listing carries tag t, ignoring case.
func (l *Listing) HasTag(t string) bool {
	for _, tag := range l.Tags {
		if strings.EqualFold(tag, t) {
			return true
		}
	}
	return false
}

// Entitlement is the read-only projection of a user's ledger balance for a
// service. Amount units are service-defined.
type Entitlement struct {
	User      string    `json:"user"`
	ServiceID uint64    `json:"serviceId"`
	Amount    uint64    `json:"amount"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// User is a marketplace account keyed by wallet address.
type User struct {
	Address   string    `json:"address" bson:"address"`
	Nickname  string    `json:"nickname" bson:"nickname"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
