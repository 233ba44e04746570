// Package audio defines the playback capability driven by a game session
// and a controller that tracks what is playing.
package audio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Player plays one audio source at a time.
type Player interface {
	// Play starts or resumes playback of source.
	Play(source string) error
	// Pause stops playback, keeping the position.
	Pause() error
	// OnEnded registers fn to be called when the source finishes on its own.
	OnEnded(fn func())
}

// Status is the playback status seen by clients.
type Status struct {
	Playing bool   `json:"playing"`
	Source  string `json:"source"`
}

// Controller wraps a Player backend, tracks its status and tolerates
// repeated pause requests.
type Controller struct {
	mu      sync.RWMutex
	backend Player
	status  Status
	onEnded func()
}

// NewController creates a controller driving backend.
func NewController(backend Player) *Controller {
	c := &Controller{backend: backend}
	backend.OnEnded(c.handleEnded)
	return c
}

// Status returns the current playback status.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Play starts source on the backend. A song without audio has nothing to
// play and is not an error.
func (c *Controller) Play(source string) error {
	if source == "" {
		log.Debug().Msg("No audio source, playback skipped")
		return nil
	}
	if err := c.backend.Play(source); err != nil {
		return fmt.Errorf("play %s: %w", source, err)
	}

	c.mu.Lock()
	c.status = Status{Playing: true, Source: source}
	c.mu.Unlock()

	log.Debug().Str("source", source).Msg("Playback started")
	return nil
}

func (c *Controller) Pause() error {
	c.mu.RLock()
	playing := c.status.Playing
	c.mu.RUnlock()
	if !playing {
		return nil
	}

	if err := c.backend.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	c.mu.Lock()
	c.status.Playing = false
	c.mu.Unlock()

	log.Debug().Msg("Playback paused")
	return nil
}

func (c *Controller) OnEnded(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnded = fn
}

func (c *Controller) handleEnded() {
	c.mu.Lock()
	wasPlaying := c.status.Playing
	c.status.Playing = false
	fn := c.onEnded
	c.mu.Unlock()

	if wasPlaying && fn != nil {
		log.Debug().Msg("Playback ended")
		fn()
	}
}

// Sync reconciles the tracked status with a state reported by the backend
// ("play", "pause" or "stop"). It reports whether the status changed.
// Leaving "play" without a Pause request counts as the source ending.
func (c *Controller) Sync(state string) (changed bool) {
	playing := state == "play"

	c.mu.RLock()
	was := c.status.Playing
	c.mu.RUnlock()

	if was == playing {
		return false
	}
	if !playing {
		c.handleEnded()
		return true
	}

	c.mu.Lock()
	c.status.Playing = true
	c.mu.Unlock()
	return true
}
