package blockchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Marketplace contract functions.
const (
	FnSubscriptionOf = "subscriptionOf"
	FnPurchase       = "purchaseSubscription"
)

// MarketABIJSON is the subset of the marketplace contract ABI the SDK uses.
const MarketABIJSON = `[
  {"type":"function","name":"subscriptionOf","stateMutability":"view",
   "inputs":[{"name":"serviceId","type":"uint256"},{"name":"user","type":"address"}],
   "outputs":[{"name":"exists","type":"bool"},{"name":"amount","type":"uint256"}]},
  {"type":"function","name":"purchaseSubscription","stateMutability":"payable",
   "inputs":[{"name":"serviceId","type":"uint256"}],
   "outputs":[]},
  {"type":"event","name":"SubscriptionPurchased","anonymous":false,
   "inputs":[{"name":"serviceId","type":"uint256","indexed":true},
             {"name":"user","type":"address","indexed":true},
             {"name":"amount","type":"uint256","indexed":false}]}
]`

var marketABI = mustParseABI(MarketABIJSON)

// MarketABI returns the parsed marketplace ABI.
func MarketABI() abi.ABI { return marketABI }

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
