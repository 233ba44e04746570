package analytics

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogTracker writes events to the structured log.
type LogTracker struct {
	level zerolog.Level
}

// NewLogTracker creates a tracker logging at the given level.
func NewLogTracker(level zerolog.Level) *LogTracker {
	return &LogTracker{level: level}
}

func (t *LogTracker) Track(_ context.Context, e Event) {
	log.WithLevel(t.level).
		Str("event", e.Name).
		Str("player", e.PlayerID).
		Fields(e.Properties).
		Msg("Analytics event")
}
