package catalog

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

var (
	// ErrInvalidListing is returned by NewListing when a required field is missing.
	ErrInvalidListing = errors.New("catalog: invalid listing")
	// ErrCurrencyMismatch is returned for listings priced in a denomination
	// other than the catalog's.
	ErrCurrencyMismatch = errors.New("catalog: listing currency differs from catalog currency")
)

// Intake defaults.
const (
	DefaultCategory         = "Other"
	DefaultFreeRequests     = 100
	DefaultTierType         = "subscription"
	DefaultEnterpriseAction = "Contact Sales"
)

// ProviderInput is what a provider submits to list a service. Prices are
// whole-coin amounts as typed ("0.5").
type ProviderInput struct {
	Name            string           `json:"name" yaml:"name"`
	Description     string           `json:"description" yaml:"description"`
	FullDescription string           `json:"fullDescription" yaml:"fullDescription"`
	Provider        string           `json:"provider" yaml:"provider"`
	LedgerID        uint64           `json:"ledgerId" yaml:"ledgerId"`
	ProviderAddress string           `json:"providerAddress" yaml:"providerAddress"`
	Category        string           `json:"category" yaml:"category"`
	Tags            []string         `json:"tags" yaml:"tags"`
	Price           string           `json:"price" yaml:"price"`
	Currency        string           `json:"currency" yaml:"currency"`
	TokensAccepted  []string         `json:"tokensAccepted" yaml:"tokensAccepted"`
	Endpoint        string           `json:"endpoint" yaml:"endpoint"`
	DocsURL         string           `json:"docsUrl" yaml:"docsUrl"`
	FreeTier        *FreeTierInput   `json:"freeTier" yaml:"freeTier"`
	Tiers           []TierInput      `json:"pricingTiers" yaml:"pricingTiers"`
	Packages        []PackageInput   `json:"requestPackages" yaml:"requestPackages"`
	Enterprise      *EnterpriseInput `json:"enterpriseTier" yaml:"enterpriseTier"`
}

type FreeTierInput struct {
	Name     string   `json:"name" yaml:"name"`
	Requests uint64   `json:"requests" yaml:"requests"`
	Features []string `json:"features" yaml:"features"`
	Forever  *bool    `json:"isForever" yaml:"isForever"`
}

type TierInput struct {
	Name     string   `json:"name" yaml:"name"`
	Price    string   `json:"price" yaml:"price"`
	Requests string   `json:"requests" yaml:"requests"`
	Features []string `json:"features" yaml:"features"`
	Type     string   `json:"type" yaml:"type"`
	Period   string   `json:"period" yaml:"period"`
}

type PackageInput struct {
	Requests uint64 `json:"requests" yaml:"requests"`
	Price    string `json:"price" yaml:"price"`
}

type EnterpriseInput struct {
	Name         string   `json:"name" yaml:"name"`
	Features     []string `json:"features" yaml:"features"`
	ContactLabel string   `json:"contactLabel" yaml:"contactLabel"`
}

var (
	spaceRun  = regexp.MustCompile(`\s+`)
	slugStrip = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slug derives a listing id from name and the creation time.
func Slug(name string, now time.Time) string {
	s := spaceRun.ReplaceAllString(strings.ToLower(name), "-")
	s = slugStrip.ReplaceAllString(s, "")
	return s + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// NewListing builds a validated listing from provider input.
func NewListing(in ProviderInput, now time.Time) (*model.Listing, error) {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"name", in.Name}, {"description", in.Description}, {"provider", in.Provider},
	} {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s required", ErrInvalidListing, strings.Join(missing, ", "))
	}

	l := &model.Listing{
		ID:                Slug(in.Name, now),
		LedgerID:          in.LedgerID,
		Name:              in.Name,
		Description:       in.Description,
		FullDescription:   in.FullDescription,
		Provider:          in.Provider,
		ProviderAddress:   in.ProviderAddress,
		Category:          orDefault(in.Category, DefaultCategory),
		Tags:              append([]string{}, in.Tags...),
		AcceptingNewUsers: true,
		Currency:          strings.ToUpper(orDefault(in.Currency, model.SUI.Symbol)),
		TokensAccepted:    in.TokensAccepted,
		Endpoint:          in.Endpoint,
		DocsURL:           in.DocsURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if len(l.TokensAccepted) == 0 {
		l.TokensAccepted = []string{l.Currency}
	}
	denom := model.DenominationOf(l)

	if p := strings.TrimSpace(in.Price); p != "" {
		v, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("%w: price %q: %w", model.ErrMalformedPricing, p, err)
		}
		u, err := denom.ToUnits(v)
		if err != nil {
			return nil, fmt.Errorf("%w: price %q: %w", model.ErrMalformedPricing, p, err)
		}
		l.BasePrice = u
	}

	if f := in.FreeTier; f != nil && f.Name != "" {
		l.Free = &model.FreeTier{
			Name:             f.Name,
			IncludedRequests: f.Requests,
			Features:         f.Features,
			Forever:          f.Forever == nil || *f.Forever,
		}
		if l.Free.IncludedRequests == 0 {
			l.Free.IncludedRequests = DefaultFreeRequests
		}
	}

	for _, t := range in.Tiers {
		l.Tiers = append(l.Tiers, model.PricingTier{
			Name:     t.Name,
			Price:    model.NewPrice(t.Price),
			Requests: t.Requests,
			Features: t.Features,
			Type:     orDefault(t.Type, DefaultTierType),
			Period:   t.Period,
		})
	}

	for _, p := range in.Packages {
		price := strings.TrimSpace(p.Price)
		pkg := model.RequestPackage{
			Name:     fmt.Sprintf("%d Requests", p.Requests),
			Requests: p.Requests,
			Price:    model.NewPrice(price + " " + denom.Symbol),
		}
		if v, err := decimal.NewFromString(price); err == nil && p.Requests > 0 {
			per := v.DivRound(decimal.NewFromBigInt(new(big.Int).SetUint64(p.Requests), 0), 12)
			pkg.PerRequest = per.StringFixed(6) + " " + denom.Symbol + "/req"
		}
		l.Packages = append(l.Packages, pkg)
	}

	if e := in.Enterprise; e != nil && e.Name != "" {
		l.Enterprise = &model.EnterpriseTier{
			Name:         e.Name,
			Features:     e.Features,
			ContactLabel: orDefault(e.ContactLabel, DefaultEnterpriseAction),
		}
	}

	if err := model.NormalizePricing(l); err != nil {
		return nil, err
	}
	return l, nil
}

// CheckCurrency returns ErrCurrencyMismatch unless l is priced in denom.
// Unknown currency symbols never match.
func CheckCurrency(l *model.Listing, denom model.Denomination) error {
	symbol := model.SUI.Symbol
	if l.Currency != "" {
		d, ok := model.LookupDenomination(l.Currency)
		if !ok {
			return fmt.Errorf("%w: %s has unknown currency %q", ErrCurrencyMismatch, l.ID, l.Currency)
		}
		symbol = d.Symbol
	}
	if symbol != denom.Symbol {
		return fmt.Errorf("%w: %s is priced in %s, catalog uses %s", ErrCurrencyMismatch, l.ID, symbol, denom.Symbol)
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
