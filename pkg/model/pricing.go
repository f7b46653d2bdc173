package model

import (
	"encoding/json"
	"strings"
)

// PriceUnits is an amount in the smallest unit of a listing's denomination
// (MIST for SUI).
type PriceUnits uint64

// PriceTag marks the non-numeric price sentinels.
type PriceTag string

const (
	PriceNumeric PriceTag = ""
	PriceFree    PriceTag = "free"
	PriceCustom  PriceTag = "custom"
)

// Price is a provider-entered price. Units is canonical once set; Label keeps
// the text the provider typed ("0.5 SUI", "Free", "Custom") for display and
// for documents ingested before Units existed.
type Price struct {
	Units *PriceUnits `json:"units,omitempty"`
	Tag   PriceTag    `json:"tag,omitempty"`
	Label string      `json:"label,omitempty"`
}

// NewPrice builds a Price from a provider label, recognising the Free and
// Custom sentinels case-insensitively. Units are filled by NormalizePricing.
func NewPrice(label string) Price {
	return Price{Label: label, Tag: tagOf(label)}
}

// UnitsPrice builds a Price with canonical units and a display label.
func UnitsPrice(u PriceUnits, label string) Price {
	return Price{Units: &u, Label: label}
}

func tagOf(label string) PriceTag {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "free":
		return PriceFree
	case "custom":
		return PriceCustom
	}
	return PriceNumeric
}

// IsFree reports whether the price is the Free sentinel or exactly zero units.
func (p Price) IsFree() bool {
	return p.Tag == PriceFree || (p.Units != nil && *p.Units == 0)
}

// IsCustom reports whether the price is the Custom (contact sales) sentinel.
func (p Price) IsCustom() bool { return p.Tag == PriceCustom }

// String returns the provider label, or the raw units when no label exists.
func (p Price) String() string {
	if p.Label != "" {
		return p.Label
	}
	if p.Units != nil {
		return formatUint(uint64(*p.Units))
	}
	return string(p.Tag)
}

// UnmarshalJSON accepts the legacy string form ("0.5 SUI"), a bare integer
// of base units, or the object form produced by MarshalJSON.
func (p *Price) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*p = NewPrice(label)
		return nil
	}
	var units uint64
	if err := json.Unmarshal(data, &units); err == nil {
		*p = UnitsPrice(PriceUnits(units), "")
		return nil
	}
	type alias Price
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Price(a)
	if p.Tag == PriceNumeric {
		p.Tag = tagOf(p.Label)
	}
	return nil
}

// FreeTier is a no-cost allowance of requests.
type FreeTier struct {
	Name             string   `json:"name"`
	IncludedRequests uint64   `json:"requests"`
	Features         []string `json:"features,omitempty"`
	Forever          bool     `json:"isForever,omitempty"`
}

// RequestPackage is a one-time purchase of a fixed number of requests.
type RequestPackage struct {
	Name       string `json:"name"`
	Requests   uint64 `json:"requests"`
	Price      Price  `json:"price"`
	PerRequest string `json:"pricePerRequest,omitempty"`
}

// PricingTier is a recurring subscription. Requests is a free-text quota
// descriptor such as "1K/day".
type PricingTier struct {
	Name     string   `json:"name"`
	Price    Price    `json:"price"`
	Requests string   `json:"requests,omitempty"`
	Features []string `json:"features,omitempty"`
	Type     string   `json:"type,omitempty"`
	Period   string   `json:"period,omitempty"`
}

// EnterpriseTier never carries a price; it resolves to a contact action.
type EnterpriseTier struct {
	Name         string   `json:"name"`
	Features     []string `json:"features,omitempty"`
	ContactLabel string   `json:"contactLabel,omitempty"`
}

// PricingModel groups the independently present pricing facets of a listing.
type PricingModel struct {
	Free       *FreeTier        `json:"freeTier,omitempty"`
	Packages   []RequestPackage `json:"requestPackages,omitempty"`
	Tiers      []PricingTier    `json:"pricingTiers,omitempty"`
	Enterprise *EnterpriseTier  `json:"enterpriseTier,omitempty"`
}

// IsEmpty reports whether no facet is present.
func (p *PricingModel) IsEmpty() bool {
	return p.Free == nil && len(p.Packages) == 0 && len(p.Tiers) == 0 && p.Enterprise == nil
}

// HasFreeOffer reports whether a free tier exists or any subscription tier is free.
func (p *PricingModel) HasFreeOffer() bool {
	if p.Free != nil {
		return true
	}
	for _, t := range p.Tiers {
		if t.Price.IsFree() {
			return true
		}
	}
	return false
}

// BundleTiers returns the subscription tiers that carry a chargeable price,
// i.e. the tiers minus the Free and Custom ones, in their original order.
func (p *PricingModel) BundleTiers() []PricingTier {
	out := make([]PricingTier, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		if t.Price.IsFree() || t.Price.IsCustom() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CustomTier returns the first Custom-priced tier, if any.
func (p *PricingModel) CustomTier() (PricingTier, bool) {
	for _, t := range p.Tiers {
		if t.Price.IsCustom() {
			return t, true
		}
	}
	return PricingTier{}, false
}

// Mode is the pricing mode a buyer picks for one purchase.
type Mode string

const (
	ModeFree       Mode = "free"
	ModePerRequest Mode = "perRequest"
	ModeBundle     Mode = "bundle"
	ModeEnterprise Mode = "enterprise"
)

// ParseMode maps a mode name (case-insensitive, "per-request" accepted) to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "free":
		return ModeFree, true
	case "perrequest", "package":
		return ModePerRequest, true
	case "bundle", "subscription":
		return ModeBundle, true
	case "enterprise":
		return ModeEnterprise, true
	}
	return "", false
}

// Offering is the facet a purchase resolved to. It is implemented only by
// *FreeTier, RequestPackage, PricingTier, *EnterpriseTier and BasePrice.
type Offering interface {
	offering()
	OfferingName() string
}

// BasePrice is the offering used when a listing has no structured pricing.
type BasePrice struct {
	Units PriceUnits
}

func (*FreeTier) offering()       {}
func (RequestPackage) offering()  {}
func (PricingTier) offering()     {}
func (*EnterpriseTier) offering() {}
func (BasePrice) offering()       {}

func (f *FreeTier) OfferingName() string       { return f.Name }
func (r RequestPackage) OfferingName() string  { return r.Name }
func (t PricingTier) OfferingName() string     { return t.Name }
func (e *EnterpriseTier) OfferingName() string { return e.Name }
func (BasePrice) OfferingName() string         { return "Base price" }
