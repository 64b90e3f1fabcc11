package cli

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var envFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "crm-match",
	Short: "Match CRM leads to real-estate listings",
	Long: `crm-match scores leads against listings on budget, region, property type,
room count and amenities, and serves the results over HTTP.

Without a subcommand it starts the API server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file to load (default is ./.env)")
}

func getVerbose() (result bool) {
	result = verbose
	return result
}

func getEnvFile() (result string) {
	result = envFile
	return result
}
