package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
	cent    = decimal.New(1, -2)
)

// FormatPrice renders units as a coin amount with magnitude-dependent
// precision: >=100 coins 0 decimals, >=1 2, >=0.01 3, otherwise 4.
func FormatPrice(units model.PriceUnits, denom model.Denomination) string {
	coins := denom.ToCoins(units)
	return coins.StringFixed(Precision(coins)) + " " + denom.Symbol
}

// Precision returns the number of decimals FormatPrice uses for coins.
func Precision(coins decimal.Decimal) int32 {
	switch {
	case coins.GreaterThanOrEqual(hundred):
		return 0
	case coins.GreaterThanOrEqual(one):
		return 2
	case coins.GreaterThanOrEqual(cent):
		return 3
	}
	return 4
}

// PerRequestLabel renders the unit price of a request package with six
// decimals, e.g. "0.005000 SUI/req".
func PerRequestLabel(units model.PriceUnits, requests uint64, denom model.Denomination) string {
	if requests == 0 {
		return ""
	}
	per := denom.ToCoins(units).DivRound(decimal.NewFromBigInt(new(big.Int).SetUint64(requests), 0), 6)
	return per.StringFixed(6) + " " + denom.Symbol + "/req"
}
