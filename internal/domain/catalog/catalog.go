package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed default_catalog.json
var defaultCatalogJSON []byte

var (
	// ErrEmptyCatalog is returned when a catalog would contain no songs.
	ErrEmptyCatalog = errors.New("catalog has no songs")

	// ErrDuplicateID is returned when two songs share an ID.
	ErrDuplicateID = errors.New("duplicate song id")

	// ErrMissingField is returned when a song lacks its title or artist.
	ErrMissingField = errors.New("song is missing title or artist")
)

// Catalog is an ordered, read-only collection of songs.
type Catalog struct {
	songs []Song
	byID  map[string]int

	// lowercased copies used by the text matchers
	lowerTitles   []string
	lowerDisplays []string
}

// New builds a catalog from songs in the given order. Display names are
// always derived from title and artist.
func New(songs []Song) (*Catalog, error) {
	if len(songs) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		songs:         make([]Song, len(songs)),
		byID:          make(map[string]int, len(songs)),
		lowerTitles:   make([]string, len(songs)),
		lowerDisplays: make([]string, len(songs)),
	}

	for i, s := range songs {
		if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Artist) == "" {
			return nil, fmt.Errorf("song %d (%q): %w", i, s.ID, ErrMissingField)
		}
		if _, exists := c.byID[s.ID]; exists {
			return nil, fmt.Errorf("song %q: %w", s.ID, ErrDuplicateID)
		}

		s.DisplayName = FormatDisplayName(s.Title, s.Artist)
		if s.AudioWorking != nil {
			working := *s.AudioWorking
			s.AudioWorking = &working
		}

		c.songs[i] = s
		c.byID[s.ID] = i
		c.lowerTitles[i] = strings.ToLower(s.Title)
		c.lowerDisplays[i] = strings.ToLower(s.DisplayName)
	}

	return c, nil
}

// Load reads a JSON catalog file as written by songdle-catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("songs", c.Len()).Msg("Catalog loaded")
	return c, nil
}

// Parse decodes a JSON array of songs into a catalog.
func Parse(data []byte) (*Catalog, error) {
	var songs []Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(songs)
}

// Default returns the built-in catalog used when no catalog file is configured.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalogJSON)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return c, nil
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	return len(c.songs)
}

// All returns a copy of every song in catalog order.
func (c *Catalog) All() []Song {
	out := make([]Song, len(c.songs))
	copy(out, c.songs)
	return out
}

// At returns the song at position i in catalog order.
func (c *Catalog) At(i int) Song {
	return c.songs[i]
}

// Get looks a song up by ID.
func (c *Catalog) Get(id string) (Song, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Song{}, false
	}
	return c.songs[i], true
}

// FindByText resolves free text to the first song, in catalog order, whose
// display name equals the text or whose title is contained in it. Matching is
// case-insensitive. When titles overlap the earlier song wins.
func (c *Catalog) FindByText(query string) (Song, bool) {
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		return Song{}, false
	}

	for i := range c.songs {
		if strings.Contains(q, c.lowerTitles[i]) || q == c.lowerDisplays[i] {
			return c.songs[i], true
		}
	}
	return Song{}, false
}

// Suggest returns the songs whose display name contains text,
// case-insensitively. Blank text returns the whole catalog.
func (c *Catalog) Suggest(text string) []Song {
	if strings.TrimSpace(text) == "" {
		return c.All()
	}

	q := strings.ToLower(text)
	var out []Song
	for i := range c.songs {
		if strings.Contains(c.lowerDisplays[i], q) {
			out = append(out, c.songs[i])
		}
	}
	return out
}
