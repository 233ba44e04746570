package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edumarques81/songdle/internal/ingest"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.csv>",
	Short: "Convert a chart spreadsheet export into a catalog",
	Long: `Convert a chart CSV export into the game's JSON catalog.

Genres, decades and voice types are normalized, missing values become
"Desconocido", and rows without a title or artist are skipped.

Examples:
  songdle-catalog convert los40.csv
  songdle-catalog convert los40.csv -o data/catalog.json --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

// Flags
var (
	convertOut string
	convertTop int
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "data/catalog.json", "Catalog file to write")
	convertCmd.Flags().IntVar(&convertTop, "top", 10, "Entries per category in the summary")
}

func runConvert(cmd *cobra.Command, args []string) error {
	res, err := ingest.ConvertFile(args[0])
	if err != nil {
		return err
	}
	if len(res.Songs) == 0 {
		return fmt.Errorf("no songs found in %s", args[0])
	}

	if err := ingest.WriteCatalog(convertOut, res.Songs); err != nil {
		return err
	}

	summary := ingest.Summarize(res, convertTop)
	summary.Log()

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d songs to %s (%d skipped, %d duplicates)\n",
		summary.Processed, convertOut, summary.Skipped, summary.Duplicates)
	return nil
}
