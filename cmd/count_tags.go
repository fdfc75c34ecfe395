package cmd

import (
	"fmt"

	"github.com/homemade/an2ea/sync"
	"github.com/spf13/cobra"
)

var countTagsColumn string

var countTagsCmd = &cobra.Command{
	Use:   "count-tags file...",
	Short: "Count the Action Network tags used across exports",
	Long: `Count-tags prints how many rows carry each tag, most used first, followed by
the number of distinct tags. No API calls are made.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCountTags,
}

func init() {
	countTagsCmd.Flags().StringVar(&countTagsColumn, "column", "", "Tags column, defaults to columns.tags of the config")
	rootCmd.AddCommand(countTagsCmd)
}

func runCountTags(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd, sync.ConfigWithoutSecrets())
	if err != nil {
		return err
	}
	column := countTagsColumn
	if column == "" {
		column = config.Columns.Tags
	}

	counter := sync.NewTagCounter(config.Tags.Delimiters)
	for _, filename := range args {
		if err := countFile(counter, filename, column); err != nil {
			return err
		}
	}
	return sync.WriteTagCounts(cmd.OutOrStdout(), counter.Sorted())
}

func countFile(counter *sync.TagCounter, filename string, column string) error {
	reader, err := sync.OpenRowReader(filename)
	if err != nil {
		return err
	}
	defer reader.Close()
	if !reader.HasColumn(column) {
		return fmt.Errorf("'%s': expected column '%s'", filename, column)
	}
	if err = counter.AddRows(reader, column); err != nil {
		return fmt.Errorf("'%s': %w", filename, err)
	}
	return nil
}
