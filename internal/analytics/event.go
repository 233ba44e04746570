// Package analytics records gameplay events. Tracking is fire-and-forget:
// trackers never return errors to callers and never affect game state.
package analytics

import (
	"context"
	"strconv"
)

// Event names.
const (
	EventPlayClicked    = "play_clicked"
	EventPauseClicked   = "pause_clicked"
	EventSongSelected   = "song_selected"
	EventSubmitClicked  = "submit_clicked"
	EventGameWon        = "game_won"
	EventGameLost       = "game_lost"
	EventShareClicked   = "share_clicked"
	EventTutorialOpened = "tutorial_opened"
	EventStatsOpened    = "stats_opened"
	EventGameReset      = "game_reset"
	EventClueExpanded   = "clue_expanded"
)

// Event is one tracked occurrence.
type Event struct {
	Name       string
	PlayerID   string
	Properties map[string]any
}

// Tracker receives events.
type Tracker interface {
	Track(ctx context.Context, e Event)
}

// Closer is implemented by trackers that buffer or export.
type Closer interface {
	Close(ctx context.Context) error
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// PlayClicked is sent when the player starts listening.
func PlayClicked(elapsed float64) Event {
	return Event{Name: EventPlayClicked, Properties: map[string]any{
		"elapsed_time": elapsed,
		"action":       "play_audio",
	}}
}

// PauseClicked is sent when the player stops listening.
func PauseClicked(elapsed float64) Event {
	return Event{Name: EventPauseClicked, Properties: map[string]any{
		"elapsed_time": elapsed,
		"action":       "pause_audio",
	}}
}

// SongSelected is sent when a suggestion is picked.
func SongSelected(songName string, fromSearch bool) Event {
	return Event{Name: EventSongSelected, Properties: map[string]any{
		"song_name":   songName,
		"from_search": fromSearch,
		"action":      "select_song",
	}}
}

// SubmitClicked is sent for every accepted guess.
func SubmitClicked(attemptNumber int, elapsed float64, songName string) Event {
	return Event{Name: EventSubmitClicked, Properties: map[string]any{
		"attempt_number": attemptNumber,
		"elapsed_time":   seconds(elapsed),
		"song_name":      songName,
		"action":         "submit_guess",
	}}
}

// GameWon is sent once when a session is won.
func GameWon(attempts int, elapsed float64, songName string) Event {
	return Event{Name: EventGameWon, Properties: map[string]any{
		"attempts":     attempts,
		"elapsed_time": seconds(elapsed),
		"song_name":    songName,
		"outcome":      "win",
	}}
}

// GameLost is sent once when a session runs out of attempts.
func GameLost(attempts int, elapsed float64, correctSong string) Event {
	return Event{Name: EventGameLost, Properties: map[string]any{
		"attempts":     attempts,
		"elapsed_time": seconds(elapsed),
		"correct_song": correctSong,
		"outcome":      "lose",
	}}
}

// ShareClicked is sent when the result block is requested.
func ShareClicked(attempts int, won bool, method string) Event {
	return Event{Name: EventShareClicked, Properties: map[string]any{
		"attempts":     attempts,
		"won":          won,
		"share_method": method,
		"action":       "share_results",
	}}
}

func TutorialOpened() Event {
	return Event{Name: EventTutorialOpened, Properties: map[string]any{"action": "open_tutorial"}}
}

func StatsOpened() Event {
	return Event{Name: EventStatsOpened, Properties: map[string]any{"action": "open_stats"}}
}

func GameReset() Event {
	return Event{Name: EventGameReset, Properties: map[string]any{"action": "reset_game"}}
}

// ClueExpanded is sent when the player opens the details of one clue tile.
func ClueExpanded(clueType string, attemptNumber int) Event {
	return Event{Name: EventClueExpanded, Properties: map[string]any{
		"clue_type":      clueType,
		"attempt_number": attemptNumber,
		"action":         "expand_clue",
	}}
}
