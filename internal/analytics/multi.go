package analytics

import (
	"context"
	"errors"
)

// Multi fans events out to several trackers in order.
type Multi []Tracker

func (m Multi) Track(ctx context.Context, e Event) {
	for _, t := range m {
		t.Track(ctx, e)
	}
}

// Close closes every tracker that supports it and joins the errors.
func (m Multi) Close(ctx context.Context) error {
	var errs []error
	for _, t := range m {
		if c, ok := t.(Closer); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ForPlayer stamps every event with a player ID before forwarding it.
func ForPlayer(t Tracker, playerID string) Tracker {
	return playerTracker{next: t, playerID: playerID}
}

type playerTracker struct {
	next     Tracker
	playerID string
}

func (p playerTracker) Track(ctx context.Context, e Event) {
	e.PlayerID = p.playerID
	p.next.Track(ctx, e)
}
