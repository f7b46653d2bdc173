package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shamank/infraproxy-sdk-go/pkg/model"
	"github.com/shamank/infraproxy-sdk-go/pkg/pricing"
	"github.com/shamank/infraproxy-sdk-go/pkg/purchase"
)

var selection int

var quoteCmd = &cobra.Command{
	Use:   "quote <listing-id> <mode>",
	Short: "Price an offering without buying it",
	Long: `Resolve the price of an offering. Modes: free, per-request, bundle, enterprise.
--index picks the request package (per-request) or chargeable tier (bundle).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := model.ParseMode(args[1])
		if !ok {
			return fmt.Errorf("unknown mode %q", args[1])
		}
		core, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		q, err := core.Quote(cmd.Context(), args[0], mode, selection)
		if err != nil {
			return err
		}
		printQuote(cmd.OutOrStdout(), q)
		return nil
	},
}

var purchaseCmd = &cobra.Command{
	Use:     "purchase <listing-id> <mode>",
	Short:   "Buy an offering with the configured key",
	Aliases: []string{"buy"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := model.ParseMode(args[1])
		if !ok {
			return fmt.Errorf("unknown mode %q", args[1])
		}
		core, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		out, err := core.Purchase(cmd.Context(), args[0], mode, selection)
		var perr *purchase.PurchaseError
		if errors.As(err, &perr) {
			return fmt.Errorf("purchase %s failed (%s): %s", perr.AttemptID, perr.Kind, perr.Reason)
		}
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), out, core.FormatEntitlement(out.Entitlement))
		return nil
	},
}

func init() {
	quoteCmd.Flags().IntVarP(&selection, "index", "i", 0, "offering index within the mode")
	purchaseCmd.Flags().IntVarP(&selection, "index", "i", 0, "offering index within the mode")
}

func printQuote(w io.Writer, q *pricing.Quote) {
	if q.IsContact() {
		fmt.Fprintf(w, "%s: %s\n", q.Offering, q.Contact)
		return
	}
	fmt.Fprintf(w, "%s: %s", q.Offering, q.Display)
	if q.PerRequest != "" {
		fmt.Fprintf(w, " (%s)", q.PerRequest)
	}
	fmt.Fprintln(w)
}

func printOutcome(w io.Writer, out *purchase.Outcome, balance string) {
	switch out.Kind {
	case purchase.OutcomeContactRequired:
		fmt.Fprintf(w, "%s: %s\n", out.Offering, out.Contact)
	case purchase.OutcomeFreeActivated:
		fmt.Fprintf(w, "%s activated for free\n", out.Offering)
	case purchase.OutcomeConfirmed:
		fmt.Fprintf(w, "%s purchased for %s in tx %s (block %d)\n",
			out.Offering, out.Display, out.Receipt.TxHash, out.Receipt.Block)
		fmt.Fprintf(w, "balance: %s\n", balance)
	}
	trace := make([]string, len(out.Trace))
	for i, s := range out.Trace {
		trace[i] = string(s)
	}
	fmt.Fprintf(w, "attempt %s: %s\n", out.AttemptID, strings.Join(trace, " -> "))
}
