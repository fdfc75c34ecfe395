package cmd

import (
	"bufio"
	"strings"

	"github.com/homemade/an2ea/sync"
	"github.com/spf13/cobra"
)

var showFlags struct {
	codes  bool
	output string
}

var showCmd = &cobra.Command{
	Use:   "show <email>|-",
	Short: "Look up EveryAction people by email",
	Long:  `Show prints the preferred email, phone and address of the person matching an email. Use - to read one email per line from stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showFlags.codes, "codes", false, "Show Activist Codes")
	showCmd.Flags().StringVar(&showFlags.output, "output", sync.OutputText, "Output format (text, csv)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var emails []string
	if args[0] == "-" {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				emails = append(emails, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
	} else {
		emails = []string{args[0]}
	}

	writer, err := sync.NewPersonWriter(cmd.OutOrStdout(), showFlags.output, showFlags.codes)
	if err != nil {
		return err
	}

	sc, err := newSyncContext(cmd)
	if err != nil {
		return err
	}
	client := sync.NewEveryActionFetcherAndUpdater(sc)

	for _, email := range emails {
		person, found, err := client.LookupByEmail(ctx, email)
		if err != nil {
			return err
		}
		if !found {
			if err = writer.WriteNotFound(email); err != nil {
				return err
			}
			continue
		}
		var codes []sync.Code
		if showFlags.codes {
			codes, err = client.ActivistCodesForPerson(ctx, person.VanID())
			if err != nil {
				return err
			}
		}
		if err = writer.WritePerson(person, codes); err != nil {
			return err
		}
	}
	return writer.Flush()
}
