// Package daily picks the song of the day from the catalog.
//
// Songs are split into three tiers: premium (working audio with chart history
// and a streaming link), regular (working audio) and non-working (audio that
// failed verification or was never checked). The day of the year walks the
// premium tier first, then the regular tier, then cycles through the
// non-working tier for the rest of the year.
package daily

import (
	"errors"
	"time"

	"github.com/edumarques81/songdle/internal/domain/catalog"
)

// DefaultFixedIndex is the song served when no verification data exists.
const DefaultFixedIndex = 2

// ErrNoSongs is returned when every tier is empty.
var ErrNoSongs = errors.New("no songs available")

// Tier identifies one selection bucket.
type Tier string

const (
	TierPremium    Tier = "premium"
	TierRegular    Tier = "regular"
	TierNonWorking Tier = "non-working"
	TierFixed      Tier = "fixed"
)

// TierSizes summarizes how the catalog was partitioned.
type TierSizes struct {
	Premium    int  `json:"premium"`
	Regular    int  `json:"regular"`
	NonWorking int  `json:"nonWorking"`
	Degraded   bool `json:"degraded"`
}

// Pick is the outcome of a selection.
type Pick struct {
	Song  catalog.Song
	Tier  Tier
	Index int // position within the tier
}

// Songs is the read-only catalog view the selector needs.
type Songs interface {
	All() []catalog.Song
}

// Option configures a Selector.
type Option func(*Selector)

// WithFixedIndex sets the catalog index served in degraded mode.
func WithFixedIndex(i int) Option {
	return func(s *Selector) {
		s.fixedIndex = i
	}
}

// WithLocation sets the time zone used to decide which calendar day it is.
func WithLocation(loc *time.Location) Option {
	return func(s *Selector) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Selector maps calendar days to songs. It is immutable and safe for
// concurrent use.
type Selector struct {
	all        []catalog.Song
	premium    []catalog.Song
	regular    []catalog.Song
	nonWorking []catalog.Song
	degraded   bool
	fixedIndex int
	loc        *time.Location
}

// NewSelector partitions songs into tiers, preserving catalog order within
// each tier.
func NewSelector(songs Songs, opts ...Option) *Selector {
	s := &Selector{
		all:        songs.All(),
		fixedIndex: DefaultFixedIndex,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	verified := false
	for _, song := range s.all {
		if song.Verified() {
			verified = true
		}
		switch {
		case song.Playable() && song.Premium():
			s.premium = append(s.premium, song)
		case song.Playable():
			s.regular = append(s.regular, song)
		default:
			s.nonWorking = append(s.nonWorking, song)
		}
	}
	s.degraded = !verified

	return s
}

// Location returns the time zone the selector uses for "today".
func (s *Selector) Location() *time.Location {
	return s.loc
}

// Tiers returns the partition sizes.
func (s *Selector) Tiers() TierSizes {
	return TierSizes{
		Premium:    len(s.premium),
		Regular:    len(s.regular),
		NonWorking: len(s.nonWorking),
		Degraded:   s.degraded,
	}
}

// DayOfYear returns the day number of t in the selector's time zone,
// with January 1 as day 1.
func (s *Selector) DayOfYear(t time.Time) int {
	return t.In(s.loc).YearDay()
}

// Select returns the song for the calendar day containing t.
func (s *Selector) Select(t time.Time) (Pick, error) {
	return s.SelectForDay(s.DayOfYear(t))
}

// SelectForDay returns the song for the given day of the year.
func (s *Selector) SelectForDay(day int) (Pick, error) {
	if len(s.all) == 0 {
		return Pick{}, ErrNoSongs
	}

	if s.degraded {
		i := min(max(s.fixedIndex, 0), len(s.all)-1)
		return Pick{Song: s.all[i], Tier: TierFixed, Index: i}, nil
	}

	p, r, n := len(s.premium), len(s.regular), len(s.nonWorking)
	if day < 0 {
		day = 0
	}

	switch {
	case day < p:
		return Pick{Song: s.premium[day], Tier: TierPremium, Index: day}, nil
	case day < p+r:
		i := day - p
		return Pick{Song: s.regular[i], Tier: TierRegular, Index: i}, nil
	case n > 0:
		i := (day - p - r) % n
		return Pick{Song: s.nonWorking[i], Tier: TierNonWorking, Index: i}, nil
	}

	// Only working songs exist and the year outlasted them: cycle the
	// working tiers in order.
	i := day % (p + r)
	if i < p {
		return Pick{Song: s.premium[i], Tier: TierPremium, Index: i}, nil
	}
	return Pick{Song: s.regular[i-p], Tier: TierRegular, Index: i - p}, nil
}

// ScheduleEntry is one contiguous run of days served from the same tier.
type ScheduleEntry struct {
	Tier     Tier `json:"tier"`
	FirstDay int  `json:"firstDay"`
	LastDay  int  `json:"lastDay"`
}

// Days returns the number of days in the run.
func (e ScheduleEntry) Days() int {
	return e.LastDay - e.FirstDay + 1
}

// Schedule describes which tier serves each day of the given year.
func (s *Selector) Schedule(year int) []ScheduleEntry {
	last := time.Date(year, time.December, 31, 12, 0, 0, 0, s.loc).YearDay()

	var entries []ScheduleEntry
	for day := 1; day <= last; day++ {
		pick, err := s.SelectForDay(day)
		if err != nil {
			return nil
		}
		if n := len(entries); n > 0 && entries[n-1].Tier == pick.Tier {
			entries[n-1].LastDay = day
			continue
		}
		entries = append(entries, ScheduleEntry{Tier: pick.Tier, FirstDay: day, LastDay: day})
	}
	return entries
}
