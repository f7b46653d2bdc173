package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestListing_UnmarshalDefaultsAcceptingNewUsers(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{name: "missing", doc: `{"id":"a"}`, want: true},
		{name: "explicit true", doc: `{"id":"a","acceptingNewUsers":true}`, want: true},
		{name: "explicit false", doc: `{"id":"a","acceptingNewUsers":false}`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Listing
			if err := json.Unmarshal([]byte(tt.doc), &l); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if l.AcceptingNewUsers != tt.want {
				t.Fatalf("AcceptingNewUsers = %v, want %v", l.AcceptingNewUsers, tt.want)
			}
		})
	}
}

func TestListing_UnmarshalCatalogDocument(t *testing.T) {
	doc := `{
		"id": "blockberry-api",
		"name": "Blockberry API",
		"price_ms": 500000,
		"category": "Indexer",
		"is_verified": true,
		"freeTier": {"name": "Free Tier", "requests": 10, "isForever": true},
		"pricingTiers": [{"name": "Pro", "price": "0.0005 SUI/s", "requests": "1K/day"}, {"name": "Ent", "price": "Custom"}],
		"requestPackages": [{"name": "Starter Pack", "requests": 100, "price": "0.5 SUI"}],
		"enterpriseTier": {"name": "Enterprise", "contactLabel": "Contact Sales"}
	}`
	var l Listing
	if err := json.Unmarshal([]byte(doc), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// price_ms is in millionths of a coin: 0.5 SUI
	if l.BasePrice != 500_000_000 || !l.Verified {
		t.Fatalf("unexpected scalar fields: %+v", l)
	}
	if l.Free == nil || l.Free.IncludedRequests != 10 || !l.Free.Forever {
		t.Fatalf("unexpected free tier: %+v", l.Free)
	}
	if len(l.Tiers) != 2 || !l.Tiers[1].Price.IsCustom() {
		t.Fatalf("unexpected tiers: %+v", l.Tiers)
	}
	if l.Packages[0].Price.Label != "0.5 SUI" || l.Packages[0].Price.Units != nil {
		t.Fatalf("unexpected package price: %+v", l.Packages[0].Price)
	}

	// Round trip keeps the canonical object form.
	if err := NormalizePricing(&l); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	raw, err := json.Marshal(&l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Listing
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal back: %v", err)
	}
	if back.Packages[0].Price.Units == nil || *back.Packages[0].Price.Units != 500_000_000 {
		t.Fatalf("units lost in round trip: %+v", back.Packages[0].Price)
	}
}

func TestListing_UnmarshalBasePriceScale(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    PriceUnits
		wantErr bool
	}{
		{name: "base units", doc: `{"id":"a","basePrice":2000000000}`, want: 2_000_000_000},
		{name: "legacy micro SUI", doc: `{"id":"a","price_ms":2000000}`, want: 2_000_000_000},
		{name: "legacy micro USDC", doc: `{"id":"a","currency":"USDC","price_ms":2500000}`, want: 2_500_000},
		{name: "basePrice wins", doc: `{"id":"a","basePrice":7,"price_ms":2000000}`, want: 7},
		{name: "legacy below base unit", doc: `{"id":"a","currency":"USDC","price_ms":0.5}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l Listing
			err := json.Unmarshal([]byte(tt.doc), &l)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedPricing) {
					t.Fatalf("expected ErrMalformedPricing, got %v", err)
				}
				return
			}
			if err != nil || l.BasePrice != tt.want {
				t.Fatalf("BasePrice = %d, %v; want %d", l.BasePrice, err, tt.want)
			}
		})
	}
}

func TestPrice_Sentinels(t *testing.T) {
	if !NewPrice("Free").IsFree() || !NewPrice(" free ").IsFree() {
		t.Fatal("Free sentinel not recognised")
	}
	if !NewPrice("CUSTOM").IsCustom() {
		t.Fatal("Custom sentinel not recognised")
	}
	if NewPrice("4 SUI").IsFree() {
		t.Fatal("numeric label reported free")
	}
	if !UnitsPrice(0, "0 SUI").IsFree() {
		t.Fatal("zero units should be free")
	}
}

func TestPricingModel_BundleTiers(t *testing.T) {
	p := PricingModel{Tiers: []PricingTier{
		{Name: "Hobby", Price: NewPrice("Free")},
		{Name: "Pro", Price: NewPrice("5 SUI")},
		{Name: "Enterprise", Price: NewPrice("Custom")},
		{Name: "Scale", Price: NewPrice("15 SUI")},
	}}
	got := p.BundleTiers()
	if len(got) != 2 || got[0].Name != "Pro" || got[1].Name != "Scale" {
		t.Fatalf("unexpected bundle tiers: %+v", got)
	}
	if !p.HasFreeOffer() {
		t.Fatal("free tier price should count as free offer")
	}
	if tier, ok := p.CustomTier(); !ok || tier.Name != "Enterprise" {
		t.Fatalf("CustomTier = %+v, %v", tier, ok)
	}
}

func TestLeadingNumber(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"4 SUI", "4", true},
		{"0.5 SUI", "0.5", true},
		{"0.0005 SUI/s", "0.0005", true},
		{"SUI 12.25 per month", "12.25", true},
		{"1.2.3", "1.2", true},
		{".5 SUI", "0.5", true},
		{"7.", "7", true},
		{"-3 SUI", "-3", true},
		{"Contact us", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := LeadingNumber(tt.label)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("LeadingNumber(%q) = %s, want %s", tt.label, got, tt.want)
			}
		})
	}
}

func TestDenomination_ToUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    PriceUnits
		wantErr error
	}{
		{in: "4", want: 4_000_000_000},
		{in: "0.5", want: 500_000_000},
		{in: "0.000000001", want: 1},
		{in: "0.1234567891", wantErr: ErrAmountPrecision},
		{in: "-1", wantErr: ErrAmountRange},
		{in: "18446744074", wantErr: ErrAmountRange},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SUI.ToUnits(decimal.RequireFromString(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ToUnits(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestDenomination_ToCoinsExact(t *testing.T) {
	got := SUI.ToCoins(1_500_000_001)
	if !got.Equal(decimal.RequireFromString("1.500000001")) {
		t.Fatalf("ToCoins = %s", got)
	}
}

func TestNormalizePricing(t *testing.T) {
	l := &Listing{PricingModel: PricingModel{
		Packages: []RequestPackage{{Name: "1000 Requests", Requests: 1000, Price: NewPrice("4 SUI")}},
		Tiers: []PricingTier{
			{Name: "Free", Price: NewPrice("Free")},
			{Name: "Custom", Price: NewPrice("Custom")},
			{Name: "Pro", Price: NewPrice("9.99 SUI/mo")},
		},
	}}
	if err := NormalizePricing(l); err != nil {
		t.Fatalf("NormalizePricing: %v", err)
	}
	if *l.Packages[0].Price.Units != 4_000_000_000 {
		t.Fatalf("package units = %d", *l.Packages[0].Price.Units)
	}
	if *l.Tiers[0].Price.Units != 0 || l.Tiers[1].Price.Units != nil {
		t.Fatalf("sentinel units wrong: %+v %+v", l.Tiers[0].Price, l.Tiers[1].Price)
	}
	if *l.Tiers[2].Price.Units != 9_990_000_000 {
		t.Fatalf("tier units = %d", *l.Tiers[2].Price.Units)
	}
}

func TestNormalizePricing_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
	}{
		{name: "no number", listing: Listing{PricingModel: PricingModel{
			Tiers: []PricingTier{{Name: "Pro", Price: NewPrice("ask us")}},
		}}},
		{name: "negative", listing: Listing{PricingModel: PricingModel{
			Packages: []RequestPackage{{Name: "p", Requests: 1, Price: NewPrice("-1 SUI")}},
		}}},
		{name: "zero requests", listing: Listing{PricingModel: PricingModel{
			Packages: []RequestPackage{{Name: "p", Requests: 0, Price: NewPrice("1 SUI")}},
		}}},
		{name: "custom package", listing: Listing{PricingModel: PricingModel{
			Packages: []RequestPackage{{Name: "p", Requests: 10, Price: NewPrice("Custom")}},
		}}},
		{name: "sub-mist", listing: Listing{PricingModel: PricingModel{
			Packages: []RequestPackage{{Name: "p", Requests: 10, Price: NewPrice("0.0000000001 SUI")}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePricing(&tt.listing)
			if !errors.Is(err, ErrMalformedPricing) {
				t.Fatalf("expected ErrMalformedPricing, got %v", err)
			}
		})
	}
}

func TestValidatePricing_DoesNotMutate(t *testing.T) {
	l := &Listing{PricingModel: PricingModel{
		Packages: []RequestPackage{{Name: "p", Requests: 1, Price: NewPrice("1 SUI")}},
	}}
	if err := ValidatePricing(l); err != nil {
		t.Fatal(err)
	}
	if l.Packages[0].Price.Units != nil {
		t.Fatal("ValidatePricing filled units")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"free": ModeFree, "per-request": ModePerRequest, "perRequest": ModePerRequest,
		"bundle": ModeBundle, "Enterprise": ModeEnterprise,
	} {
		got, ok := ParseMode(in)
		if !ok || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseMode("barter"); ok {
		t.Fatal("unknown mode accepted")
	}
}
