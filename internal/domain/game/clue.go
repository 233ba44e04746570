package game

import (
	"strings"

	"github.com/edumarques81/songdle/internal/domain/catalog"
)

// ClueMatch tells, per attribute, whether a guessed song matches the target.
type ClueMatch struct {
	Genre    bool `json:"genre"`
	Decade   bool `json:"decade"`
	Country  bool `json:"country"`
	Language bool `json:"language"`
	Voices   bool `json:"voices"`
}

// Evaluate compares candidate against target attribute by attribute. Values
// must be equal exactly; the catalog is normalized at ingestion.
func Evaluate(candidate, target catalog.Song) ClueMatch {
	return ClueMatch{
		Genre:    candidate.Genre == target.Genre,
		Decade:   candidate.Decade == target.Decade,
		Country:  candidate.Country == target.Country,
		Language: candidate.Language == target.Language,
		Voices:   candidate.Voices == target.Voices,
	}
}

// All reports whether every attribute matched.
func (c ClueMatch) All() bool {
	return c.Genre && c.Decade && c.Country && c.Language && c.Voices
}

// Emoji renders the match as five green/red squares.
func (c ClueMatch) Emoji() string {
	var b strings.Builder
	for _, ok := range []bool{c.Genre, c.Decade, c.Country, c.Language, c.Voices} {
		if ok {
			b.WriteString("🟩")
		} else {
			b.WriteString("🟥")
		}
	}
	return b.String()
}

// IsCorrect reports whether guess names target: the guess must contain the
// target's title or its display name, ignoring case.
func IsCorrect(guess string, target catalog.Song) bool {
	g := strings.ToLower(guess)
	return strings.Contains(g, strings.ToLower(target.Title)) ||
		strings.Contains(g, strings.ToLower(target.DisplayName))
}
