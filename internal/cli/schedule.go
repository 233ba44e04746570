package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/edumarques81/songdle/internal/domain/daily"
	"github.com/edumarques81/songdle/internal/domain/stats"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show which tier serves each part of the year",
	Long: `Print the tier sizes of the catalog and the day ranges each tier covers
in a given year.

Examples:
  songdle-catalog schedule -c data/catalog.json
  songdle-catalog schedule -c data/catalog.json --year 2025`,
	RunE: runSchedule,
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the song of the day",
	Long: `Print the song the game serves on a date (today by default).

Examples:
  songdle-catalog today -c data/catalog.json
  songdle-catalog today -c data/catalog.json --date 2025-03-14 --tz Europe/Madrid`,
	RunE: runToday,
}

// Flags shared by schedule and today.
var (
	selectCatalog    string
	selectTZ         string
	selectFixedIndex int
	scheduleYear     int
	todayDate        string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(todayCmd)

	for _, c := range []*cobra.Command{scheduleCmd, todayCmd} {
		c.Flags().StringVarP(&selectCatalog, "catalog", "c", "", "Catalog file (built-in catalog when empty)")
		c.Flags().StringVar(&selectTZ, "tz", "Local", "Time zone deciding the calendar day")
		c.Flags().IntVar(&selectFixedIndex, "fixed-index", daily.DefaultFixedIndex, "Catalog index served when no verification data exists")
	}
	scheduleCmd.Flags().IntVar(&scheduleYear, "year", 0, "Year to plan (default: current year)")
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date as YYYY-MM-DD (default: today)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	songs, err := loadCatalog(selectCatalog)
	if err != nil {
		return err
	}
	sel, err := newSelector(songs, selectTZ, selectFixedIndex)
	if err != nil {
		return err
	}

	year := scheduleYear
	if year == 0 {
		year = time.Now().In(sel.Location()).Year()
	}

	w := cmd.OutOrStdout()
	tiers := sel.Tiers()
	fmt.Fprintf(w, "Catalog: %d songs (premium %d, regular %d, non-working %d)\n",
		songs.Len(), tiers.Premium, tiers.Regular, tiers.NonWorking)
	if tiers.Degraded {
		fmt.Fprintf(w, "No audio verification data: song #%d is served every day\n", selectFixedIndex)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tFIRST\tLAST\tDAYS")
	for _, e := range sel.Schedule(year) {
		first := time.Date(year, 1, e.FirstDay, 0, 0, 0, 0, time.UTC)
		last := time.Date(year, 1, e.LastDay, 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Tier, first.Format("Jan 02"), last.Format("Jan 02"), e.Days())
	}
	return tw.Flush()
}

func runToday(cmd *cobra.Command, args []string) error {
	songs, err := loadCatalog(selectCatalog)
	if err != nil {
		return err
	}
	sel, err := newSelector(songs, selectTZ, selectFixedIndex)
	if err != nil {
		return err
	}

	when := time.Now().In(sel.Location())
	if todayDate != "" {
		when, err = time.ParseInLocation(stats.DateLayout, todayDate, sel.Location())
		if err != nil {
			return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", todayDate)
		}
	}

	pick, err := sel.Select(when)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Songdle #%d (%s)\n", sel.DayOfYear(when), when.Format(stats.DateLayout))
	fmt.Fprintf(w, "Song:  %s\n", pick.Song.DisplayName)
	fmt.Fprintf(w, "Tier:  %s #%d\n", pick.Tier, pick.Index)
	fmt.Fprintf(w, "Audio: %s\n", pick.Song.AudioURL)
	return nil
}
