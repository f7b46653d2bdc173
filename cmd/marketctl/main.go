// Command marketctl browses the InfraProxy catalog, quotes and buys
// offerings and inspects ledger entitlements.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shamank/infraproxy-sdk-go/pkg/config"
	"github.com/shamank/infraproxy-sdk-go/pkg/market"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "marketctl",
	Short: "InfraProxy marketplace client",
	Long: `marketctl talks to the InfraProxy marketplace: it lists and filters
infrastructure listings, quotes and purchases offerings on the ledger and
reads entitlement balances.

Configuration comes from --config (YAML) and INFRAPROXY_* environment
variables, optionally loaded from a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug logging")
	rootCmd.AddCommand(listingsCmd, quoteCmd, purchaseCmd, balanceCmd, seedCmd, probeCmd, publishCmd)
}

// openCore loads configuration and connects a market.Core.
func openCore(ctx context.Context) (*market.Core, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}
	return market.New(ctx, cfg)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = zap.L().Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
