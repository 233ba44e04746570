package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/edumarques81/songdle/internal/infra/probe"
	"github.com/edumarques81/songdle/internal/ingest"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every song's audio URL and record the result",
	Long: `Send a HEAD request to every song's audio URL and store the outcome in
the catalog's audioWorking field. The daily selector prefers songs whose
audio is known to work.

Examples:
  songdle-catalog verify -c data/catalog.json
  songdle-catalog verify -c data/catalog.json --base-url http://localhost:3001 --report data/verification.json`,
	RunE: runVerify,
}

// Flags
var (
	verifyCatalog     string
	verifyOut         string
	verifyReport      string
	verifyBaseURL     string
	verifyTimeout     time.Duration
	verifyConcurrency int
)

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyCatalog, "catalog", "c", "data/catalog.json", "Catalog file to verify")
	verifyCmd.Flags().StringVarP(&verifyOut, "out", "o", "", "Where to write the verified catalog (default: overwrite --catalog)")
	verifyCmd.Flags().StringVar(&verifyReport, "report", "", "Write a verification report JSON to this file")
	verifyCmd.Flags().StringVar(&verifyBaseURL, "base-url", "", "Base URL for relative audio paths")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", probe.DefaultTimeout, "Per-request timeout")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", probe.DefaultConcurrency, "Concurrent requests")
}

func runVerify(cmd *cobra.Command, args []string) error {
	songs, err := loadCatalog(verifyCatalog)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := probe.New(
		probe.WithTimeout(verifyTimeout),
		probe.WithConcurrency(verifyConcurrency),
		probe.WithBaseURL(verifyBaseURL),
	)
	report, err := p.VerifyAll(ctx, songs.All())
	if err != nil {
		return fmt.Errorf("verification interrupted: %w", err)
	}

	out := verifyOut
	if out == "" {
		out = verifyCatalog
	}
	if err := ingest.WriteCatalog(out, report.Songs); err != nil {
		return err
	}
	if verifyReport != "" {
		if err := writeJSONFile(verifyReport, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Verified %d songs: %d working, %d not working\n",
		report.TotalSongs, report.WorkingSongs, report.NotWorkingSongs)
	fmt.Fprintf(w, "Catalog written to %s\n", out)
	return nil
}
