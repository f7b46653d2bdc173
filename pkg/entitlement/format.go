package entitlement

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
)

var milli = decimal.New(1, -3)

// FormatEntitlementAmount renders a balance on the same scale as prices:
// whole coins from 1 coin up ("1.5000 SUI"), milli-coins from 0.001
// ("2.5000 mSUI") and base units below that ("420 MIST").
func FormatEntitlementAmount(amount uint64, denom model.Denomination) string {
	coins := denom.ToCoins(model.PriceUnits(amount))
	switch {
	case coins.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return coins.StringFixed(4) + " " + denom.Symbol
	case coins.GreaterThanOrEqual(milli):
		return coins.Shift(3).StringFixed(4) + " " + denom.MilliSymbol
	}
	return strconv.FormatUint(amount, 10) + " " + denom.BaseSymbol
}
