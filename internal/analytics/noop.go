package analytics

import "context"

// NoOp discards every event.
type NoOp struct{}

func (NoOp) Track(context.Context, Event) {}

func (NoOp) Close(context.Context) error { return nil }
