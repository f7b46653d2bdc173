package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

// PriceBand groups listings by their lowest entry price in whole coins.
type PriceBand string

const (
	BandAny      PriceBand = "any"
	BandFree     PriceBand = "free"
	BandBudget   PriceBand = "budget"   // < 5
	BandStandard PriceBand = "standard" // 5..15 inclusive
	BandPremium  PriceBand = "premium"  // > 15
)

var (
	budgetCeil   = decimal.NewFromInt(5)
	standardCeil = decimal.NewFromInt(15)
)

// ParsePriceBand maps a band name to a PriceBand. "" maps to BandAny.
func ParsePriceBand(s string) (PriceBand, bool) {
	switch b := PriceBand(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BandAny, true
	case BandAny, BandFree, BandBudget, BandStandard, BandPremium:
		return b, true
	}
	return "", false
}

// categoryKeywords maps a category filter key to the keywords a listing's
// category must contain.
var categoryKeywords = map[string][]string{
	"rpc":       {"RPC"},
	"indexer":   {"Indexer"},
	"analytics": {"Analytics", "Data"},
	"storage":   {"Storage"},
	"compute":   {"Compute"},
	"security":  {"Security"},
}

// Categories returns the known category filter keys.
func Categories() []string {
	return []string{"rpc", "indexer", "analytics", "storage", "compute", "security"}
}

// Criteria is a transient filter over listings. The zero value matches
// everything.
type Criteria struct {
	// Query is matched case-insensitively against name, description,
	// provider and category.
	Query string
	// Category is a key of the category table. "" and "all" disable the
	// predicate; any other unknown key matches nothing.
	Category      string
	// Tag keeps only listings carrying this tag (case-insensitive).
	Tag           string
	VerifiedOnly  bool
	PriceBand     PriceBand
	AcceptingOnly bool
}

// IsEmpty reports whether no predicate is active.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Query) == "" && !categoryActive(c.Category) && strings.TrimSpace(c.Tag) == "" && !c.VerifiedOnly &&
		(c.PriceBand == "" || c.PriceBand == BandAny) && !c.AcceptingOnly
}

// Filter returns the listings matching c, in their original order.
func Filter(listings []*model.Listing, c Criteria) []*model.Listing {
	out := make([]*model.Listing, 0, len(listings))
	for _, l := range listings {
		if Matches(l, c) {
			out = append(out, l)
		}
	}
	return out
}

// Matches reports whether l passes every active predicate of c.
func Matches(l *model.Listing, c Criteria) bool {
	if l == nil {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" && !matchesQuery(l, q) {
		return false
	}
	if categoryActive(c.Category) && !matchesCategory(l, c.Category) {
		return false
	}
	if tag := strings.TrimSpace(c.Tag); tag != "" && !l.HasTag(tag) {
		return false
	}
	if c.VerifiedOnly && !l.Verified {
		return false
	}
	if !InBand(l, c.PriceBand) {
		return false
	}
	if c.AcceptingOnly && !l.AcceptingNewUsers {
		return false
	}
	return true
}

func matchesQuery(l *model.Listing, q string) bool {
	for _, f := range []string{l.Name, l.Description, l.Provider, l.Category} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func categoryActive(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	return k != "" && k != "all"
}

func matchesCategory(l *model.Listing, key string) bool {
	cat := strings.ToLower(l.Category)
	for _, kw := range categoryKeywords[strings.ToLower(strings.TrimSpace(key))] {
		if strings.Contains(cat, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// InBand reports whether l falls in band b.
func InBand(l *model.Listing, b PriceBand) bool {
	switch b {
	case "", BandAny:
		return true
	case BandFree:
		return l.HasFreeOffer()
	}
	price, ok := EntryPrice(l)
	if !ok {
		return false
	}
	switch b {
	case BandBudget:
		return price.LessThan(budgetCeil)
	case BandStandard:
		return !price.LessThan(budgetCeil) && !price.GreaterThan(standardCeil)
	case BandPremium:
		return price.GreaterThan(standardCeil)
	}
	return false
}

// EntryPrice returns the lowest resolvable price of l in whole coins. Custom
// tiers and unparsable labels are skipped; ok is false when nothing numeric
// remains.
func EntryPrice(l *model.Listing) (decimal.Decimal, bool) {
	denom := model.DenominationOf(l)
	if l.IsEmpty() {
		return denom.ToCoins(l.BasePrice), true
	}
	if l.HasFreeOffer() {
		return decimal.Zero, true
	}

	var (
		min   model.PriceUnits
		found bool
	)
	consider := func(p model.Price) {
		u, ok := unitsOf(p, denom)
		if ok && (!found || u < min) {
			min, found = u, true
		}
	}
	for _, p := range l.Packages {
		consider(p.Price)
	}
	for _, t := range l.BundleTiers() {
		consider(t.Price)
	}
	if !found {
		return decimal.Zero, false
	}
	return denom.ToCoins(min), true
}

func unitsOf(p model.Price, denom model.Denomination) (model.PriceUnits, bool) {
	switch {
	case p.IsCustom():
		return 0, false
	case p.Units != nil:
		return *p.Units, true
	case p.IsFree():
		return 0, true
	}
	u, err := denom.ParseLabel(p.Label)
	return u, err == nil
}
