package ingest

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// Count is one value of a histogram.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summary describes a converted catalog.
type Summary struct {
	Processed  int     `json:"processed"`
	Skipped    int     `json:"skipped"`
	Duplicates int     `json:"duplicates"`
	WithAudio  int     `json:"withAudio"`
	Premium    int     `json:"premium"`
	Genres     []Count `json:"genres"`
	Decades    []Count `json:"decades"`
	Countries  []Count `json:"countries"`
}

// Summarize builds the conversion summary, keeping the top n values of each
// histogram.
func Summarize(res *Result, n int) Summary {
	genres := map[string]int{}
	decades := map[string]int{}
	countries := map[string]int{}

	s := Summary{
		Processed:  len(res.Songs),
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
	}
	for _, song := range res.Songs {
		genres[song.Genre]++
		decades[song.Decade]++
		countries[song.Country]++
		if song.AudioURL != "" {
			s.WithAudio++
		}
		if song.Premium() {
			s.Premium++
		}
	}

	s.Genres = top(genres, n)
	s.Decades = top(decades, n)
	s.Countries = top(countries, n)
	return s
}

// top sorts by count descending, then value ascending.
func top(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for v, c := range m {
		out = append(out, Count{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Log writes the summary to the structured log.
func (s Summary) Log() {
	log.Info().
		Int("processed", s.Processed).
		Int("skipped", s.Skipped).
		Int("duplicates", s.Duplicates).
		Int("withAudio", s.WithAudio).
		Int("premium", s.Premium).
		Msg("Catalog converted")

	for _, c := range s.Genres {
		log.Info().Str("genre", c.Value).Int("songs", c.Count).Msg("Top genre")
	}
	for _, c := range s.Decades {
		log.Info().Str("decade", c.Value).Int("songs", c.Count).Msg("Top decade")
	}
	for _, c := range s.Countries {
		log.Info().Str("country", c.Value).Int("songs", c.Count).Msg("Top country")
	}
}
