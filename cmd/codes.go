package cmd

import (
	"fmt"

	"github.com/homemade/an2ea/sync"
	"github.com/spf13/cobra"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List the EveryAction activist codes and tags that export tags can map to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := newSyncContext(cmd)
		if err != nil {
			return err
		}
		client := sync.NewEveryActionFetcherAndUpdater(sc)
		catalog, err := client.LoadCodes(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range catalog.Codes() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", c.ID, c.Type, c.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(codesCmd)
}
