package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var balanceUser string

var balanceCmd = &cobra.Command{
	Use:   "balance <service-id>",
	Short: "Show the ledger entitlement for a service",
	Long: `Show the entitlement of --user (default: the configured key) for a
ledger service id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid service id %q: %w", args[0], err)
		}
		core, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		e, err := core.Entitlement(cmd.Context(), balanceUser, serviceID)
		if err != nil {
			return err
		}
		if e == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "no entitlement")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (as of %s)\n", core.FormatEntitlement(e), e.FetchedAt.Format("15:04:05"))
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVarP(&balanceUser, "user", "u", "", "wallet address")
}
