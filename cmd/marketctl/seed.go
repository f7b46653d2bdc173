package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml|file.json>",
	Short: "Upsert listings from a seed file",
	Long: `Upsert listings into the configured catalog store. The file is a YAML
or JSON list of listings, or an object with the list under "services".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		ls, err := catalog.DecodeListings(data)
		if err != nil {
			return err
		}
		core, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		r, err := core.Seed(cmd.Context(), ls)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), r)
		return nil
	},
}
