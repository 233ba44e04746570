// Package game implements one player's daily guessing session: the listening
// budget, guess submission with attribute clues, win/loss detection and
// persistence of progress.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/analytics"
	"github.com/edumarques81/songdle/internal/audio"
	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/infra/store"
)

// Resolver maps free guess text to a catalog song.
type Resolver interface {
	FindByText(text string) (catalog.Song, bool)
}

// OutcomeRecorder receives finished games.
type OutcomeRecorder interface {
	RecordOutcome(won bool, attempts int, elapsed float64, today string) error
	PlayedOn(day string) bool
}

// Params wires a session to its collaborators.
type Params struct {
	// Day is the calendar day (YYYY-MM-DD) the session belongs to.
	Day string
	// Number is the puzzle number printed in the share text.
	Number int
	Target catalog.Song
	Songs  Resolver
	Player audio.Player
	Clock  Clock
	Store  store.KV
	Stats  OutcomeRecorder
	// Tracker may be nil.
	Tracker analytics.Tracker
	Config  Config
}

// Session is one player's game for one day. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	cfg     Config
	day     string
	number  int
	target  catalog.Song
	songs   Resolver
	player  audio.Player
	clock   Clock
	kv      store.KV
	stats   OutcomeRecorder
	tracker analytics.Tracker

	state         State
	statsRecorded bool
	guessText     string

	listening   bool
	baseElapsed float64
	startMark   time.Time
	stopTick    func()
	tickGen     uint64

	onChange func(Snapshot)
}

// NewSession creates a session and restores any progress stored for the
// same day.
func NewSession(p Params) *Session {
	s := &Session{
		cfg:     p.Config.withDefaults(),
		day:     p.Day,
		number:  p.Number,
		target:  p.Target,
		songs:   p.Songs,
		player:  p.Player,
		clock:   p.Clock,
		kv:      p.Store,
		stats:   p.Stats,
		tracker: p.Tracker,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.tracker == nil {
		s.tracker = analytics.NoOp{}
	}
	if s.number <= 0 {
		s.number = 1
	}

	s.restore()
	s.player.OnEnded(s.handleEnded)
	return s
}

// OnChange registers fn to receive a snapshot after every transition,
// including ones not caused by a caller such as the listening cap.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Day returns the calendar day of the session.
func (s *Session) Day() string {
	return s.day
}

// Target returns the song being guessed.
func (s *Session) Target() catalog.Song {
	return s.target
}

func (s *Session) maxListen() float64 {
	return s.cfg.MaxListen.Seconds()
}

func (s *Session) freshState() {
	s.state = State{Attempts: []Attempt{}}
	s.statsRecorded = s.stats.PlayedOn(s.day)
}

func (s *Session) restore() {
	s.freshState()

	data, err := s.kv.Get(store.KeyGameState)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read game state, starting fresh")
		}
		return
	}

	var stored storedState
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warn().Err(err).Msg("Stored game state is corrupt, starting fresh")
		return
	}
	if stored.Day != s.day {
		log.Debug().Str("stored", stored.Day).Str("today", s.day).Msg("Discarding game state from another day")
		return
	}
	if (stored.GameWon && stored.GameLost) || len(stored.Attempts) > s.cfg.MaxAttempts {
		log.Warn().Msg("Stored game state is inconsistent, starting fresh")
		return
	}

	s.state = stored.State
	if s.state.Attempts == nil {
		s.state.Attempts = []Attempt{}
	}
	s.state.ElapsedTime = min(max(s.state.ElapsedTime, 0), s.maxListen())
	s.statsRecorded = stored.StatsRecorded

	// A finished game whose statistics write was interrupted.
	if s.state.Over() && !s.statsRecorded {
		s.recordOutcomeLocked()
		s.persistLocked()
	}
}

func (s *Session) persistLocked() {
	data, err := json.Marshal(storedState{
		State:         s.state,
		Day:           s.day,
		StatsRecorded: s.statsRecorded,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode game state")
		return
	}
	if err := s.kv.Set(store.KeyGameState, data); err != nil {
		log.Warn().Err(err).Msg("Failed to save game state")
	}
}

func (s *Session) track(e analytics.Event) {
	s.tracker.Track(context.Background(), e)
}

// elapsedLocked returns listening time, capped at the budget.
func (s *Session) elapsedLocked() float64 {
	if !s.listening {
		return s.state.ElapsedTime
	}
	e := s.baseElapsed + s.clock.Now().Sub(s.startMark).Seconds()
	return min(e, s.maxListen())
}

// stopListeningLocked freezes elapsed time, stops the tick and pauses audio.
func (s *Session) stopListeningLocked() {
	if !s.listening {
		return
	}
	s.state.ElapsedTime = s.elapsedLocked()
	s.listening = false
	s.tickGen++
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
	if err := s.player.Pause(); err != nil {
		log.Warn().Err(err).Msg("Failed to pause audio")
	}
}

func (s *Session) notify(snap Snapshot, fn func(Snapshot)) {
	if fn != nil {
		fn(snap)
	}
}

// Play starts listening. It is a no-op while already listening.
func (s *Session) Play() error {
	s.mu.Lock()

	if s.state.Over() {
		s.mu.Unlock()
		return ErrSessionOver
	}
	if s.listening {
		s.mu.Unlock()
		return nil
	}
	if s.state.ElapsedTime >= s.maxListen() {
		s.mu.Unlock()
		return ErrListenBudgetExhausted
	}

	// The listening clock runs even when the audio cannot start.
	if err := s.player.Play(s.target.AudioURL); err != nil {
		log.Warn().Err(err).Str("song", s.target.ID).Msg("Audio failed to start")
	}

	s.listening = true
	s.baseElapsed = s.state.ElapsedTime
	s.startMark = s.clock.Now()
	s.tickGen++
	gen := s.tickGen
	s.stopTick = s.clock.Every(s.cfg.TickInterval, func() { s.tick(gen) })

	s.track(analytics.PlayClicked(s.state.ElapsedTime))
	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	s.notify(snap, fn)
	return nil
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()

	if gen != s.tickGen || !s.listening {
		s.mu.Unlock()
		return
	}

	elapsed := s.elapsedLocked()
	if elapsed < s.maxListen() {
		s.state.ElapsedTime = elapsed
		s.mu.Unlock()
		return
	}

	s.stopListeningLocked()
	s.state.ElapsedTime = s.maxListen()
	s.persistLocked()
	log.Debug().Str("day", s.day).Msg("Listening budget reached")

	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	s.notify(snap, fn)
}

// Pause stops listening. It is a no-op when not listening.
func (s *Session) Pause() {
	s.pause(true)
}

func (s *Session) handleEnded() {
	s.pause(false)
}

func (s *Session) pause(userInitiated bool) {
	s.mu.Lock()

	if !s.listening {
		s.mu.Unlock()
		return
	}

	s.stopListeningLocked()
	s.persistLocked()
	if userInitiated {
		s.track(analytics.PauseClicked(s.state.ElapsedTime))
	}

	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	s.notify(snap, fn)
}

// UpdateGuessText replaces the pending guess. selected marks text picked
// from the suggestion list.
func (s *Session) UpdateGuessText(text string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if selected {
		s.track(analytics.SongSelected(text, strings.TrimSpace(s.guessText) != ""))
	}
	s.guessText = text
}

// SubmitGuess turns the pending guess into an attempt. Rejected submissions
// leave the session untouched.
func (s *Session) SubmitGuess() (Attempt, error) {
	s.mu.Lock()

	if s.state.Over() || len(s.state.Attempts) >= s.cfg.MaxAttempts {
		s.mu.Unlock()
		return Attempt{}, ErrSessionOver
	}
	if strings.TrimSpace(s.guessText) == "" {
		s.mu.Unlock()
		return Attempt{}, ErrEmptyGuess
	}
	elapsed := s.elapsedLocked()
	if elapsed == 0 {
		s.mu.Unlock()
		return Attempt{}, ErrNotListened
	}

	guess := s.guessText
	attempt := Attempt{
		Guess:     guess,
		Time:      elapsed,
		IsCorrect: IsCorrect(guess, s.target),
	}
	if song, ok := s.songs.FindByText(guess); ok {
		clues := Evaluate(song, s.target)
		attempt.Clues = &clues
	}

	s.stopListeningLocked()
	s.state.ElapsedTime = elapsed
	s.state.Attempts = append(s.state.Attempts, attempt)
	s.guessText = ""

	n := len(s.state.Attempts)
	s.track(analytics.SubmitClicked(n, elapsed, guess))

	switch {
	case attempt.IsCorrect:
		s.state.GameWon = true
		s.track(analytics.GameWon(n, elapsed, s.target.DisplayName))
	case n >= s.cfg.MaxAttempts:
		s.state.GameLost = true
		s.track(analytics.GameLost(n, elapsed, s.target.DisplayName))
	}

	if s.state.Over() && !s.statsRecorded {
		s.recordOutcomeLocked()
	}
	s.persistLocked()

	log.Debug().
		Str("day", s.day).
		Int("attempt", n).
		Bool("correct", attempt.IsCorrect).
		Float64("time", elapsed).
		Msg("Guess submitted")

	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	s.notify(snap, fn)
	return attempt, nil
}

func (s *Session) recordOutcomeLocked() {
	err := s.stats.RecordOutcome(s.state.GameWon, len(s.state.Attempts), s.state.ElapsedTime, s.day)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record statistics")
		return
	}
	s.statsRecorded = true
}

// Reset discards today's progress and clears the stored game state.
// Statistics already recorded today are not recorded again when the replay
// finishes.
func (s *Session) Reset() {
	s.mu.Lock()

	s.stopListeningLocked()
	s.freshState()
	s.guessText = ""
	if err := s.kv.Remove(store.KeyGameState); err != nil {
		log.Warn().Err(err).Msg("Failed to clear game state")
	}
	s.track(analytics.GameReset())

	snap, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	s.notify(snap, fn)
}

// State returns a copy of the persisted game state with live elapsed time.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Attempts = append([]Attempt{}, s.state.Attempts...)
	st.ElapsedTime = s.elapsedLocked()
	return st
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phaseLocked()
}

func (s *Session) phaseLocked() Phase {
	switch {
	case s.state.GameWon:
		return PhaseWon
	case s.state.GameLost:
		return PhaseLost
	case s.listening:
		return PhaseListening
	case s.state.ElapsedTime > 0:
		return PhasePaused
	default:
		return PhaseIdle
	}
}

// Snapshot returns the rendering state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	views := make([]AttemptView, len(s.state.Attempts))
	for i, a := range s.state.Attempts {
		views[i] = AttemptView{Attempt: a}
		if a.Clues != nil {
			if song, ok := s.songs.FindByText(a.Guess); ok {
				views[i].Song = attributesOf(song)
			}
		}
	}

	snap := Snapshot{
		Day:           s.day,
		Number:        s.number,
		Phase:         s.phaseLocked(),
		Attempts:      views,
		ElapsedTime:   s.elapsedLocked(),
		MaxListenTime: s.maxListen(),
		MaxAttempts:   s.cfg.MaxAttempts,
		AttemptsLeft:  max(s.cfg.MaxAttempts-len(s.state.Attempts), 0),
		GuessText:     s.guessText,
		Listening:     s.listening,
		GameWon:       s.state.GameWon,
		GameLost:      s.state.GameLost,
		AudioURL:      s.target.AudioURL,
	}
	if s.state.Over() {
		answer := s.target
		snap.Answer = &answer
	}
	return snap
}

// Close stops listening and saves progress.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listening {
		s.stopListeningLocked()
		s.persistLocked()
	}
}
