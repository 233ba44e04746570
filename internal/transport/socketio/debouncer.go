package socketio

import (
	"sync"
	"time"
)

// Push kinds a debouncer can batch.
const (
	pushKindState = "state"
	pushKindStats = "stats"
)

// PushDebouncer collapses bursts of session changes into one push per
// player. Several changes for the same player within the window result in a
// single state push, plus a stats push if any change asked for one.
type PushDebouncer struct {
	window        time.Duration
	stateCallback func(playerID string)
	statsCallback func(playerID string)

	mu      sync.Mutex
	pending map[string]map[string]bool
	timer   *time.Timer
	stopped bool
}

// NewPushDebouncer creates a debouncer with the given window.
func NewPushDebouncer(window time.Duration, stateCallback, statsCallback func(playerID string)) *PushDebouncer {
	return &PushDebouncer{
		window:        window,
		stateCallback: stateCallback,
		statsCallback: statsCallback,
		pending:       make(map[string]map[string]bool),
	}
}

// Trigger records that the player needs a push of the given kind.
func (d *PushDebouncer) Trigger(playerID, kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	kinds := d.pending[playerID]
	if kinds == nil {
		kinds = make(map[string]bool)
		d.pending[playerID] = kinds
	}
	switch kind {
	case pushKindStats:
		kinds[pushKindStats] = true
		kinds[pushKindState] = true
	default:
		kinds[pushKindState] = true
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *PushDebouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	pending := d.pending
	d.pending = make(map[string]map[string]bool)
	d.mu.Unlock()

	for playerID, kinds := range pending {
		if kinds[pushKindState] && d.stateCallback != nil {
			d.stateCallback(playerID)
		}
		if kinds[pushKindStats] && d.statsCallback != nil {
			d.statsCallback(playerID)
		}
	}
}

// Stop prevents any further callbacks from firing.
func (d *PushDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string]map[string]bool)
}
