package game

import (
	"errors"
	"time"

	"github.com/edumarques81/songdle/internal/domain/catalog"
)

const (
	DefaultMaxAttempts  = 6
	DefaultMaxListen    = 10 * time.Second
	DefaultTickInterval = 10 * time.Millisecond
)

var (
	// ErrEmptyGuess is returned when submitting blank guess text.
	ErrEmptyGuess = errors.New("guess is empty")

	// ErrNotListened is returned when submitting before any listening.
	ErrNotListened = errors.New("song has not been played yet")

	// ErrSessionOver is returned for actions on a won or lost session.
	ErrSessionOver = errors.New("game is over")

	// ErrListenBudgetExhausted is returned when playing after the listening cap.
	ErrListenBudgetExhausted = errors.New("listening time exhausted")

	// ErrGameInProgress is returned when sharing an unfinished game.
	ErrGameInProgress = errors.New("game is still in progress")
)

// Config holds the game limits.
type Config struct {
	MaxAttempts  int
	MaxListen    time.Duration
	TickInterval time.Duration
}

// DefaultConfig returns six attempts and ten seconds of listening.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  DefaultMaxAttempts,
		MaxListen:    DefaultMaxListen,
		TickInterval: DefaultTickInterval,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.MaxListen <= 0 {
		c.MaxListen = d.MaxListen
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	return c
}

// Phase is the externally visible session state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseListening Phase = "listening"
	PhasePaused    Phase = "paused"
	PhaseWon       Phase = "won"
	PhaseLost      Phase = "lost"
)

// Attempt is one submitted guess. Clues is nil when the guess text did not
// resolve to a catalog song.
type Attempt struct {
	Guess     string     `json:"guess"`
	Time      float64    `json:"time"`
	IsCorrect bool       `json:"isCorrect"`
	Clues     *ClueMatch `json:"clues,omitempty"`
}

// State is the persisted progress of one daily game.
type State struct {
	Attempts    []Attempt `json:"attempts"`
	ElapsedTime float64   `json:"elapsedTime"`
	GameWon     bool      `json:"gameWon"`
	GameLost    bool      `json:"gameLost"`
}

// Over reports whether the game has been won or lost.
func (s State) Over() bool {
	return s.GameWon || s.GameLost
}

type storedState struct {
	State
	Day           string `json:"day"`
	StatsRecorded bool   `json:"statsRecorded"`
}

// AttemptView is an attempt together with the attributes of the song the
// guess resolved to, for rendering clue tiles.
type AttemptView struct {
	Attempt
	Song *SongAttributes `json:"song,omitempty"`
}

// SongAttributes are the clue-relevant fields of a song.
type SongAttributes struct {
	DisplayName string `json:"displayName"`
	Genre       string `json:"genre"`
	Decade      string `json:"decade"`
	Country     string `json:"country"`
	Language    string `json:"language"`
	Voices      string `json:"voices"`
}

func attributesOf(s catalog.Song) *SongAttributes {
	return &SongAttributes{
		DisplayName: s.DisplayName,
		Genre:       s.Genre,
		Decade:      s.Decade,
		Country:     s.Country,
		Language:    s.Language,
		Voices:      s.Voices,
	}
}

// Snapshot is the rendering state of a session.
type Snapshot struct {
	Day           string        `json:"day"`
	Number        int           `json:"number"`
	Phase         Phase         `json:"phase"`
	Attempts      []AttemptView `json:"attempts"`
	ElapsedTime   float64       `json:"elapsedTime"`
	MaxListenTime float64       `json:"maxListenTime"`
	MaxAttempts   int           `json:"maxAttempts"`
	AttemptsLeft  int           `json:"attemptsLeft"`
	GuessText     string        `json:"guessText"`
	Listening     bool          `json:"listening"`
	GameWon       bool          `json:"gameWon"`
	GameLost      bool          `json:"gameLost"`
	AudioURL      string        `json:"audioUrl"`

	// Answer is only set once the game is over.
	Answer *catalog.Song `json:"answer,omitempty"`
}
