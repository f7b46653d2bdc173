package model

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountPrecision is returned when an amount is finer than the base unit.
	ErrAmountPrecision = errors.New("model: amount finer than base unit")
	// ErrAmountRange is returned for negative amounts or amounts above uint64.
	ErrAmountRange = errors.New("model: amount out of range")
	// ErrNoNumber is returned when a label carries no numeric literal.
	ErrNoNumber = errors.New("model: no numeric literal")
)

var maxUnits = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// Denomination fixes the conversion between whole coins and base units.
type Denomination struct {
	Symbol      string // SUI
	MilliSymbol string // mSUI
	BaseSymbol  string // MIST
	Decimals    int32
}

// Known denominations.
var (
	SUI  = Denomination{Symbol: "SUI", MilliSymbol: "mSUI", BaseSymbol: "MIST", Decimals: 9}
	USDC = Denomination{Symbol: "USDC", MilliSymbol: "mUSDC", BaseSymbol: "uUSDC", Decimals: 6}
	ETH  = Denomination{Symbol: "ETH", MilliSymbol: "mETH", BaseSymbol: "wei", Decimals: 18}
)

var denominations = map[string]Denomination{
	"SUI":  SUI,
	"USDC": USDC,
	"ETH":  ETH,
}

// LookupDenomination returns the denomination for a symbol (case-insensitive).
func LookupDenomination(symbol string) (Denomination, bool) {
	d, ok := denominations[strings.ToUpper(strings.TrimSpace(symbol))]
	return d, ok
}

// DenominationOf returns the listing's denomination, SUI when unset or unknown.
func DenominationOf(l *Listing) Denomination {
	if l == nil || l.Currency == "" {
		return SUI
	}
	if d, ok := LookupDenomination(l.Currency); ok {
		return d
	}
	return SUI
}

// ToUnits converts a coin amount into base units. It never rounds: amounts
// with a sub-unit remainder fail with ErrAmountPrecision.
func (d Denomination) ToUnits(coins decimal.Decimal) (PriceUnits, error) {
	if coins.IsNegative() {
		return 0, ErrAmountRange
	}
	scaled := coins.Shift(d.Decimals)
	if !scaled.IsInteger() {
		return 0, ErrAmountPrecision
	}
	if scaled.GreaterThan(maxUnits) {
		return 0, ErrAmountRange
	}
	return PriceUnits(scaled.BigInt().Uint64()), nil
}

// FromMicro converts an amount in millionths of a coin, the scale of the web
// marketplace's price_ms field, into base units.
func (d Denomination) FromMicro(micro decimal.Decimal) (PriceUnits, error) {
	return d.ToUnits(micro.Shift(-6))
}

// ToCoins converts base units into an exact coin amount.
func (d Denomination) ToCoins(u PriceUnits) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(u)), -d.Decimals)
}

// LeadingNumber extracts the first maximal run of digits containing at most
// one decimal point from label and parses it as a fixed-point decimal.
func LeadingNumber(label string) (decimal.Decimal, bool) {
	start := -1
	for i := 0; i < len(label); i++ {
		c := label[i]
		if isDigit(c) || (c == '.' && i+1 < len(label) && isDigit(label[i+1])) {
			start = i
			break
		}
	}
	if start < 0 {
		return decimal.Zero, false
	}
	end, dot := start, false
	for end < len(label) {
		c := label[end]
		if c == '.' && !dot {
			dot = true
		} else if !isDigit(c) {
			break
		}
		end++
	}
	lit := strings.TrimSuffix(label[start:end], ".")
	if strings.HasPrefix(lit, ".") {
		lit = "0" + lit
	}
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, false
	}
	if start > 0 && label[start-1] == '-' {
		v = v.Neg()
	}
	return v, true
}

// ParseLabel converts a price label such as "4 SUI" into base units.
func (d Denomination) ParseLabel(label string) (PriceUnits, error) {
	v, ok := LeadingNumber(label)
	if !ok {
		return 0, ErrNoNumber
	}
	return d.ToUnits(v)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
