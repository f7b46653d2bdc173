package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
)

var probeCmd = &cobra.Command{
	Use:   "probe [listing-id...]",
	Short: "Check listing endpoints",
	Long:  `Probe the endpoints of the given listings, or of every accepting listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		var results []catalog.Availability
		if len(args) == 0 {
			results, err = core.CheckAvailability(cmd.Context(), catalog.Criteria{AcceptingOnly: true})
			if err != nil {
				return err
			}
		} else {
			results, err = core.CheckListings(cmd.Context(), args...)
			if err != nil {
				return err
			}
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPROTOCOL\tHEALTHY\tSTATUS\tLATENCY")
		for _, a := range results {
			status := a.Status
			if a.Err != nil {
				status = a.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", a.ListingID, a.Protocol, a.Healthy, status, a.Latency.Round(time.Millisecond))
		}
		return tw.Flush()
	},
}
