package socketio

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/audio"
)

// PlaybackCommand is the pushPlayback payload telling a browser's audio
// element what to do.
type PlaybackCommand struct {
	Action string `json:"action"`
	Source string `json:"source,omitempty"`
}

// PlaybackRelay forwards play and pause requests to the player's browser.
// The browser reports back with playbackState events, which reach the
// audio controller through the app.
type PlaybackRelay struct {
	mu   sync.RWMutex
	emit func(playerID, event string, payload any)
}

// NewPlaybackRelay creates a relay. It emits nothing until a Server is
// created with it.
func NewPlaybackRelay() *PlaybackRelay {
	return &PlaybackRelay{}
}

func (r *PlaybackRelay) attach(emit func(playerID, event string, payload any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit = emit
}

func (r *PlaybackRelay) send(playerID string, cmd PlaybackCommand) {
	r.mu.RLock()
	emit := r.emit
	r.mu.RUnlock()

	if emit == nil {
		log.Debug().Str("player", playerID).Str("action", cmd.Action).Msg("Playback relay not attached")
		return
	}
	emit(playerID, "pushPlayback", cmd)
}

// Player returns the audio backend for one player. Its signature matches
// app.PlayerFactory.
func (r *PlaybackRelay) Player(playerID string) audio.Player {
	return &browserPlayer{relay: r, playerID: playerID}
}

type browserPlayer struct {
	relay    *PlaybackRelay
	playerID string
}

func (p *browserPlayer) Play(source string) error {
	p.relay.send(p.playerID, PlaybackCommand{Action: "play", Source: source})
	return nil
}

func (p *browserPlayer) Pause() error {
	p.relay.send(p.playerID, PlaybackCommand{Action: "pause"})
	return nil
}

// OnEnded is a no-op: the end of a track arrives as a playbackState event
// and is applied with audio.Controller.Sync.
func (p *browserPlayer) OnEnded(func()) {}
