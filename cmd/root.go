package cmd

import (
	"context"
	"embed"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/homemade/an2ea/sync"
	"github.com/spf13/cobra"
)

//go:embed mappings/*.yaml
var mappingFiles embed.FS

var embeddedMappings = sync.EmbeddedMappings{
	Root:  "mappings",
	Files: mappingFiles,
}

// InputFileEnvVar names the export synced when no file is given.
const InputFileEnvVar = "ACTIONNETWORK_ACTIVIST_CSV"

var (
	envFile        string
	configFile     string
	verbose        bool
	recordRequests bool
)

var rootCmd = &cobra.Command{
	Use:   "an2ea",
	Short: "Sync Action Network activist exports with EveryAction",
	Long: `an2ea reads CSV exports of activists from Action Network and creates or
updates the matching contacts in EveryAction, applying their tags as activist
codes.

Credentials are read from the environment, usually through a .env file:

    EVERYACTION_APP_NAME="TSURJ.99.9999"
    EVERYACTION_API_KEY="d9999f51-8564-5341-145g-g615d99999af"
    ACTIONNETWORK_ACTIVIST_CSV="downloads/export.csv"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It exits with status 1 on error.
func Execute() {
	sync.Init(sync.ActionNetwork2EveryAction)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "g", sync.DefaultEnvFile, "Environment file with the API key")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file overriding the default column mappings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show data")
	rootCmd.PersistentFlags().BoolVar(&recordRequests, "record", false, "Record API requests and responses under testdata/.requests")
}

// loadConfig loads the embedded mappings, the --config file and the --env file.
func loadConfig(cmd *cobra.Command, opts ...sync.ConfigOption) (sync.Config, error) {
	options := []sync.ConfigOption{
		sync.ConfigWithEnvFile(envFile, cmd.Flags().Changed("env")),
		sync.ConfigWithMappingFile(configFile),
	}
	options = append(options, opts...)
	return sync.LoadConfigFromEnvironment(cmd.Context(), embeddedMappings, options...)
}

// newSyncContext loads the config, checks the API credentials and applies the global flags.
func newSyncContext(cmd *cobra.Command) (*sync.SyncContext, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err = config.RequireAPICredentials(); err != nil {
		return nil, err
	}
	sc := sync.NewSyncContext(config)
	sc.RecordRequests = recordRequests
	sc.Verbose = verbose
	sc.VerboseOutput = cmd.ErrOrStderr()
	return sc, nil
}
