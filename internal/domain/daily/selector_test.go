package daily

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/edumarques81/songdle/internal/domain/catalog"
)

type songList []catalog.Song

func (l songList) All() []catalog.Song { return l }

func boolPtr(b bool) *bool { return &b }

func premiumSong(id string) catalog.Song {
	return catalog.Song{ID: id, Title: id, Artist: "A", AudioWorking: boolPtr(true), NumberOneDate: "1 de enero de 2000", SpotifyURL: "https://open.spotify.com/track/" + id}
}

func regularSong(id string) catalog.Song {
	return catalog.Song{ID: id, Title: id, Artist: "A", AudioWorking: boolPtr(true)}
}

func brokenSong(id string) catalog.Song {
	return catalog.Song{ID: id, Title: id, Artist: "A", AudioWorking: boolPtr(false)}
}

func unknownSong(id string) catalog.Song {
	return catalog.Song{ID: id, Title: id, Artist: "A"}
}

// mixed interleaves tiers so the test also checks that catalog order is kept
// inside each tier.
func mixed() songList {
	return songList{
		regularSong("r0"),
		premiumSong("p0"),
		brokenSong("n0"),
		premiumSong("p1"),
		regularSong("r1"),
		unknownSong("n1"),
		premiumSong("p2"),
		regularSong("r2"),
		brokenSong("n2"),
	}
}

func TestTiers(t *testing.T) {
	s := NewSelector(mixed())
	got := s.Tiers()
	want := TierSizes{Premium: 3, Regular: 3, NonWorking: 3}
	if got != want {
		t.Errorf("Tiers() = %+v, want %+v", got, want)
	}
}

func TestPremiumWithoutSpotifyIsRegular(t *testing.T) {
	song := premiumSong("x")
	song.SpotifyURL = ""
	s := NewSelector(songList{song})
	if s.Tiers().Regular != 1 {
		t.Errorf("song lacking a streaming link should be regular, got %+v", s.Tiers())
	}
}

func TestSelectForDayTierBoundaries(t *testing.T) {
	s := NewSelector(mixed())
	const p, r, n = 3, 3, 3

	tests := []struct {
		day    int
		wantID string
		tier   Tier
	}{
		{0, "p0", TierPremium},
		{p - 1, "p2", TierPremium},
		{p, "r0", TierRegular},
		{p + r - 1, "r2", TierRegular},
		{p + r, "n0", TierNonWorking},
		{p + r + 1, "n1", TierNonWorking},
		{p + r + n, "n0", TierNonWorking},
		{366, fmt.Sprintf("n%d", (366-p-r)%n), TierNonWorking},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("day %d", tt.day), func(t *testing.T) {
			pick, err := s.SelectForDay(tt.day)
			if err != nil {
				t.Fatalf("SelectForDay failed: %v", err)
			}
			if pick.Song.ID != tt.wantID || pick.Tier != tt.tier {
				t.Errorf("got %s (%s), want %s (%s)", pick.Song.ID, pick.Tier, tt.wantID, tt.tier)
			}
		})
	}
}

func TestEmptyTiersFallThrough(t *testing.T) {
	s := NewSelector(songList{regularSong("r0"), brokenSong("n0"), brokenSong("n1")})

	tests := []struct {
		day    int
		wantID string
	}{
		{0, "r0"},
		{1, "n0"},
		{2, "n1"},
		{3, "n0"},
	}
	for _, tt := range tests {
		pick, err := s.SelectForDay(tt.day)
		if err != nil {
			t.Fatalf("day %d: %v", tt.day, err)
		}
		if pick.Song.ID != tt.wantID {
			t.Errorf("day %d: got %s, want %s", tt.day, pick.Song.ID, tt.wantID)
		}
	}
}

func TestWorkingOnlyCatalogCycles(t *testing.T) {
	s := NewSelector(songList{premiumSong("p0"), regularSong("r0")})

	pick, err := s.SelectForDay(5)
	if err != nil {
		t.Fatalf("SelectForDay failed: %v", err)
	}
	if pick.Song.ID != "r0" {
		t.Errorf("day 5 should cycle to r0, got %s", pick.Song.ID)
	}
}

func TestNoSongs(t *testing.T) {
	s := NewSelector(songList{})
	if _, err := s.SelectForDay(10); !errors.Is(err, ErrNoSongs) {
		t.Errorf("expected ErrNoSongs, got %v", err)
	}
	if s.Schedule(2024) != nil {
		t.Error("schedule of an empty catalog should be nil")
	}
}

func TestDegradedMode(t *testing.T) {
	songs := songList{unknownSong("a"), unknownSong("b"), unknownSong("c"), unknownSong("d")}

	tests := []struct {
		name   string
		opts   []Option
		wantID string
	}{
		{"default index", nil, "c"},
		{"custom index", []Option{WithFixedIndex(1)}, "b"},
		{"index past end is clamped", []Option{WithFixedIndex(40)}, "d"},
		{"negative index is clamped", []Option{WithFixedIndex(-3)}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(songs, tt.opts...)
			if !s.Tiers().Degraded {
				t.Fatal("expected degraded mode")
			}
			for _, day := range []int{1, 100, 365} {
				pick, err := s.SelectForDay(day)
				if err != nil {
					t.Fatalf("SelectForDay failed: %v", err)
				}
				if pick.Song.ID != tt.wantID || pick.Tier != TierFixed {
					t.Errorf("day %d: got %s (%s), want %s", day, pick.Song.ID, pick.Tier, tt.wantID)
				}
			}
		})
	}
}

func TestDefaultCatalogIsDegraded(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	s := NewSelector(c)
	pick, err := s.Select(time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if pick.Song.DisplayName != "Hotel California - Eagles" {
		t.Errorf("got %q", pick.Song.DisplayName)
	}
}

func TestSelectIsStableWithinDay(t *testing.T) {
	s := NewSelector(mixed(), WithLocation(time.UTC))
	morning := time.Date(2024, time.January, 4, 0, 0, 1, 0, time.UTC)
	night := time.Date(2024, time.January, 4, 23, 59, 59, 0, time.UTC)

	first, err := s.Select(morning)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := s.Select(night)
		if again.Song.ID != first.Song.ID {
			t.Fatalf("selection changed within the day: %s vs %s", first.Song.ID, again.Song.ID)
		}
	}

	// A fresh selector over the same catalog behaves as a process restart.
	restarted, _ := NewSelector(mixed(), WithLocation(time.UTC)).Select(morning)
	if restarted.Song.ID != first.Song.ID {
		t.Errorf("selection changed after restart: %s vs %s", first.Song.ID, restarted.Song.ID)
	}
}

func TestDayOfYearUsesLocation(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}

	// 23:30 UTC on Jan 1 is already Jan 2 in Madrid.
	instant := time.Date(2024, time.January, 1, 23, 30, 0, 0, time.UTC)

	if got := NewSelector(mixed(), WithLocation(time.UTC)).DayOfYear(instant); got != 1 {
		t.Errorf("UTC day = %d, want 1", got)
	}
	if got := NewSelector(mixed(), WithLocation(madrid)).DayOfYear(instant); got != 2 {
		t.Errorf("Madrid day = %d, want 2", got)
	}
}

func TestSchedule(t *testing.T) {
	s := NewSelector(mixed(), WithLocation(time.UTC))
	entries := s.Schedule(2024)

	want := []ScheduleEntry{
		{Tier: TierPremium, FirstDay: 1, LastDay: 2},
		{Tier: TierRegular, FirstDay: 3, LastDay: 5},
		{Tier: TierNonWorking, FirstDay: 6, LastDay: 366},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
	if entries[2].Days() != 361 {
		t.Errorf("non-working days = %d, want 361", entries[2].Days())
	}
}
