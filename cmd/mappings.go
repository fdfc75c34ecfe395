package cmd

import (
	"fmt"

	"github.com/homemade/an2ea/sync"
	"github.com/spf13/cobra"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Print how export columns map to EveryAction fields, as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd, sync.ConfigWithoutSecrets())
		if err != nil {
			return err
		}
		out, err := sync.GenerateFieldDocumentation(config).FormatCSV()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mappingsCmd)
}
