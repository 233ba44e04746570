package mpd

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Daemon is the part of Client the player drives.
type Daemon interface {
	Load(uri string) error
	Pause(pause bool) error
	State() (string, error)
}

// Player plays song sources on an MPD daemon. It satisfies audio.Player.
//
// Sources that start with "/" are resolved against the base URL so that
// catalog paths served by the game's HTTP server can be streamed by MPD.
type Player struct {
	mu      sync.Mutex
	daemon  Daemon
	baseURL string
	source  string
	playing bool
	onEnded func()
}

// NewPlayer creates a player on daemon. baseURL may be empty.
func NewPlayer(daemon Daemon, baseURL string) *Player {
	return &Player{
		daemon:  daemon,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (p *Player) resolve(source string) string {
	if p.baseURL != "" && strings.HasPrefix(source, "/") {
		return p.baseURL + source
	}
	return source
}

// Play loads source, or resumes it when it is already queued.
func (p *Player) Play(source string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if source == p.source {
		err = p.daemon.Pause(false)
	} else {
		err = p.daemon.Load(p.resolve(source))
	}
	if err != nil {
		return err
	}

	p.source = source
	p.playing = true
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return nil
	}
	if err := p.daemon.Pause(true); err != nil {
		return err
	}
	p.playing = false
	return nil
}

func (p *Player) OnEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// Run follows "player" subsystem events until ctx is done or events closes.
func (p *Player) Run(ctx context.Context, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case subsystem, ok := <-events:
			if !ok {
				return
			}
			if subsystem != "player" {
				continue
			}
			state, err := p.daemon.State()
			if err != nil {
				log.Warn().Err(err).Msg("Failed to read MPD state")
				continue
			}
			p.handleState(state)
		}
	}
}

// handleState fires the ended callback when the daemon leaves "play"
// without a Pause from us.
func (p *Player) handleState(state string) {
	p.mu.Lock()
	if !p.playing || state == "play" {
		p.mu.Unlock()
		return
	}
	p.playing = false
	if state == "stop" {
		p.source = ""
	}
	fn := p.onEnded
	p.mu.Unlock()

	log.Debug().Str("state", state).Msg("MPD playback ended")
	if fn != nil {
		fn()
	}
}
