package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shamank/infraproxy-sdk-go/pkg/catalog"
)

var publishCmd = &cobra.Command{
	Use:   "publish <provider.yaml>",
	Short: "Register a listing from provider input",
	Long: `Create a listing from a provider input file (name, description, provider,
pricing facets), store it and publish its document to IPFS when an IPFS node
is configured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var in catalog.ProviderInput
		if err := yaml.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("parse provider input: %w", err)
		}
		core, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		l, err := core.Register(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s", l.ID)
		if l.MetadataURI != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " at %s", l.MetadataURI)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}
