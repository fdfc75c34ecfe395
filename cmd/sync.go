package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/homemade/an2ea/sync"
	"github.com/spf13/cobra"
)

var syncFlags struct {
	start     int
	end       int
	count     int
	update    bool
	dryRun    bool
	logFile   string
	resume    bool
	overwrite bool
}

var syncCmd = &cobra.Command{
	Use:   "sync [input-file.csv]",
	Short: "Sync an export of Action Network activists with EveryAction contacts",
	Long: `Sync reads each row of an Action Network activist export, looks the person up
in EveryAction by email and phone, and creates or updates the contact. Tags are
applied as activist codes. Rows that fail are logged and do not stop the run.

The input file defaults to $` + InputFileEnvVar + `.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.IntVarP(&syncFlags.start, "start", "s", 1, "First row to process (starting at 1)")
	f.IntVarP(&syncFlags.end, "end", "e", 0, "Last row to process")
	f.IntVarP(&syncFlags.count, "count", "c", 0, "Number of rows to process")
	f.BoolVarP(&syncFlags.update, "update", "u", false, "Update existing contacts (name, address etc.)")
	f.BoolVarP(&syncFlags.dryRun, "dryrun", "d", false, "Indicate what would happen but don't send to EveryAction")
	f.StringVarP(&syncFlags.logFile, "log", "l", "", "Log file, defaults to the input file with a .log extension. Use '-' for console")
	f.BoolVar(&syncFlags.resume, "resume", false, "Resume importing, skipping the rows done in the existing log file")
	f.BoolVar(&syncFlags.overwrite, "overwrite", false, "Overwrite the existing log file")
	syncCmd.MarkFlagsMutuallyExclusive("end", "count")
	syncCmd.MarkFlagsMutuallyExclusive("resume", "overwrite")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rowRange, err := sync.NewRowRange(syncFlags.start, syncFlags.end, syncFlags.count)
	if err != nil {
		return err
	}

	sc, err := newSyncContext(cmd)
	if err != nil {
		return err
	}
	sc.DryRun = syncFlags.dryRun
	sc.Overwrite = syncFlags.update

	input := ""
	if len(args) > 0 {
		input = args[0]
	} else {
		input = sync.InputFileFromEnvironment(InputFileEnvVar)
	}
	if input == "" {
		return fmt.Errorf("no input file given and %s is not set", InputFileEnvVar)
	}
	if syncFlags.logFile == "og" {
		return errors.New("log file 'og': do you mean --log")
	}

	reader, err := sync.OpenRowReader(input)
	if err != nil {
		return err
	}
	defer reader.Close()
	if err = checkColumns(reader, sc.Config.Columns); err != nil {
		return fmt.Errorf("'%s': %w", input, err)
	}

	var tagMapping sync.TagMapping
	if sc.Config.Tags.MappingFile != "" {
		tagMapping, err = sync.LoadTagMapping(sc.Config.Tags.MappingFile)
		if err != nil {
			return err
		}
	}

	client := sync.NewEveryActionFetcherAndUpdater(sc)
	catalog, err := client.LoadCodes(ctx)
	if err != nil {
		return err
	}
	warnUnknownCodes(cmd, tagMapping, catalog)

	logPath := syncFlags.logFile
	if logPath == "" {
		logPath = sync.DefaultRunLogPath(input)
	}
	runLog, done, err := sync.OpenRunLog(logPath, input, sync.RunLogOptions{
		Resume:    syncFlags.resume,
		Overwrite: syncFlags.overwrite,
		DryRun:    sc.DryRun,
		Stdout:    cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer runLog.Close()
	if runLog.Path != sync.StdoutRunLog {
		fmt.Fprintln(cmd.ErrOrStderr(), "Log file:", runLog.Path)
	}
	if err = runLog.StartRun(sc.RunID, time.Now()); err != nil {
		return err
	}

	synchronizer := sync.NewSynchronizer(sc, client)
	synchronizer.TagMapping = tagMapping
	synchronizer.Range = rowRange
	synchronizer.Done = done
	synchronizer.Log = runLog

	summary, err := synchronizer.Run(ctx, reader)
	summary.Print(cmd.OutOrStdout())
	return err
}

// checkColumns fails when the export has none of the identifying columns.
func checkColumns(reader *sync.RowReader, columns sync.ColumnSettings) error {
	identifiers := columns.IdentifierColumns()
	for _, column := range identifiers {
		if reader.HasColumn(column) {
			return nil
		}
	}
	return fmt.Errorf("expected column '%s'", strings.Join(identifiers, "' or '"))
}

func warnUnknownCodes(cmd *cobra.Command, mapping sync.TagMapping, catalog *sync.CodeCatalog) {
	for _, names := range mapping {
		for _, name := range names {
			if _, exists := catalog.Lookup(name); !exists {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: No Activist Code or Tag called '%s'\n", name)
			}
		}
	}
}
