// Package stats aggregates per-player results across daily games.
package stats

import "time"

// DateLayout is the calendar-day format used for stored dates.
const DateLayout = "2006-01-02"

// Statistics is the lifetime record of one player.
type Statistics struct {
	GamesPlayed       int         `json:"gamesPlayed"`
	GamesWon          int         `json:"gamesWon"`
	CurrentStreak     int         `json:"currentStreak"`
	MaxStreak         int         `json:"maxStreak"`
	GuessDistribution map[int]int `json:"guessDistribution"`
	TotalTime         float64     `json:"totalTime"`
	LastPlayedDate    string      `json:"lastPlayedDate,omitempty"`
	LastWinDate       string      `json:"lastWinDate,omitempty"`
}

// New returns zeroed statistics.
func New() Statistics {
	return Statistics{GuessDistribution: make(map[int]int)}
}

// WinPercentage returns the share of games won, 0-100, rounded down.
func (s Statistics) WinPercentage() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.GamesWon * 100 / s.GamesPlayed
}

// AverageTime returns the mean listening time of won games.
func (s Statistics) AverageTime() float64 {
	if s.GamesWon == 0 {
		return 0
	}
	return s.TotalTime / float64(s.GamesWon)
}

// Record folds one finished game into the statistics. today is the calendar
// day the game was finished on, in DateLayout. A win extends the streak only
// when the previous win was on the day before today.
func (s *Statistics) Record(won bool, attempts int, elapsed float64, today string) {
	if s.GuessDistribution == nil {
		s.GuessDistribution = make(map[int]int)
	}

	s.GamesPlayed++
	s.LastPlayedDate = today

	if !won {
		s.CurrentStreak = 0
		return
	}

	s.GamesWon++
	s.GuessDistribution[attempts]++
	s.TotalTime += elapsed

	if isDayBefore(s.LastWinDate, today) {
		s.CurrentStreak++
	} else {
		s.CurrentStreak = 1
	}
	s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)
	s.LastWinDate = today
}

func isDayBefore(prev, today string) bool {
	if prev == "" {
		return false
	}
	p, err := time.Parse(DateLayout, prev)
	if err != nil {
		return false
	}
	t, err := time.Parse(DateLayout, today)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Equal(t)
}
