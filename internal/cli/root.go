// Package cli implements the songdle-catalog command, the operator tooling
// for building and checking the song catalog.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edumarques81/songdle/internal/version"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "songdle-catalog",
	Short: "Build and inspect the Songdle song catalog",
	Long: `songdle-catalog converts chart spreadsheets into the game catalog,
verifies that every song's audio can be fetched, and shows which song the
game will serve on a given day.`,
	Version:       version.GetInfo().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339})
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
