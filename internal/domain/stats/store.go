package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/infra/store"
)

// Store persists Statistics under the statistics key of a KV store.
type Store struct {
	mu sync.Mutex
	kv store.KV
}

// NewStore creates a statistics store on kv.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored statistics. Missing or unreadable data yields
// zeroed statistics.
func (s *Store) Load() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() Statistics {
	data, err := s.kv.Get(store.KeyStats)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read statistics, starting from zero")
		}
		return New()
	}

	st := New()
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warn().Err(err).Msg("Stored statistics are corrupt, starting from zero")
		return New()
	}
	if st.GuessDistribution == nil {
		st.GuessDistribution = make(map[int]int)
	}
	return st
}

// RecordOutcome folds a finished game into the stored statistics and writes
// them back.
func (s *Store) RecordOutcome(won bool, attempts int, elapsed float64, today string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.Record(won, attempts, elapsed, today)

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	if err := s.kv.Set(store.KeyStats, data); err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}

	log.Debug().
		Bool("won", won).
		Int("attempts", attempts).
		Int("streak", st.CurrentStreak).
		Msg("Statistics updated")
	return nil
}

// PlayedOn reports whether a game was already recorded on day.
func (s *Store) PlayedOn(day string) bool {
	return s.Load().LastPlayedDate == day
}
