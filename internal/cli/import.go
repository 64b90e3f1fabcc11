package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var importFile string

//nolint:gochecknoglobals // Cobra boilerplate
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import listings and leads from a seed file",
	Long: `Reads {listings: [...], leads: [...]} from a .json, .yaml or .yml file and
inserts the records into the configured store. Records whose id already exists
are skipped, so the import can be repeated.

Examples:
  crm-match import --file data/seed.yaml
  STORAGE_DRIVER=postgres crm-match import --file data/seed.json`,
	RunE: runImport,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Seed file to import")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, _ []string) (err error) {
	var a *app
	a, err = newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var inserted int
	inserted, err = a.importFile(cmd.Context(), importFile)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s\n", inserted, importFile)
	if err != nil {
		err = errors.Wrap(err, "failed to write output")
	}
	return err
}
