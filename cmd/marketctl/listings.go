package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
	"github.com/shamank/infraproxy-sdk-go/pkg/model"
	"github.com/shamank/infraproxy-sdk-go/pkg/pricing"
)

var (
	listQuery     string
	listCategory  string
	listTag       string
	listBand      string
	listVerified  bool
	listAccepting bool
)

var listingsCmd = &cobra.Command{
	Use:     "listings",
	Short:   "List catalog listings",
	Aliases: []string{"ls"},
	Long: `List the catalog, optionally filtered.

Examples:
  marketctl listings --band budget
  marketctl listings --category rpc --verified
  marketctl listings -q indexer
  marketctl listings --tag websocket`,
	RunE: func(cmd *cobra.Command, args []string) error {
		band, ok := catalog.ParsePriceBand(listBand)
		if !ok {
			return fmt.Errorf("unknown price band %q", listBand)
		}
		core, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		ls, err := core.Listings(cmd.Context(), catalog.Criteria{
			Query:         listQuery,
			Category:      listCategory,
			Tag:           listTag,
			VerifiedOnly:  listVerified,
			PriceBand:     band,
			AcceptingOnly: listAccepting,
		})
		if err != nil {
			return err
		}
		return printListings(cmd.OutOrStdout(), ls)
	},
}

func init() {
	f := listingsCmd.Flags()
	f.StringVarP(&listQuery, "query", "q", "", "search name, description, provider and category")
	f.StringVar(&listCategory, "category", "", "category key ("+strings.Join(catalog.Categories(), ", ")+")")
	f.StringVar(&listTag, "tag", "", "only listings carrying this tag")
	f.StringVar(&listBand, "band", "", "price band (any, free, budget, standard, premium)")
	f.BoolVar(&listVerified, "verified", false, "verified providers only")
	f.BoolVar(&listAccepting, "accepting", false, "listings accepting new users only")
}

func printListings(w io.Writer, ls []*model.Listing) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tFROM\tVERIFIED")
	for _, l := range ls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", l.ID, l.Name, l.Category, entryLabel(l), l.Verified)
	}
	return tw.Flush()
}

func entryLabel(l *model.Listing) string {
	if l.HasFreeOffer() {
		return "free"
	}
	price, ok := catalog.EntryPrice(l)
	if !ok {
		return "-"
	}
	denom := model.DenominationOf(l)
	u, err := denom.ToUnits(price)
	if err != nil {
		return price.String() + " " + denom.Symbol
	}
	return pricing.FormatPrice(u, denom)
}
