// Package ingest converts the chart spreadsheet export into a song catalog.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/domain/catalog"
)

// Column headers of the spreadsheet export.
const (
	colTitle    = "songTitle"
	colArtist   = "artistName"
	colGenre    = "Género"
	colDecade   = "Década"
	colCountry  = "País"
	colLanguage = "Idioma"
	colVoices   = "Voz" // matched as a prefix
	colMedia    = "mediaUrl"
	colYouTube  = "youtubeUrl"
	colCover    = "coverImageUrl"
	colID       = "id"
	colDate     = "date"
	colSpotify  = "spotifyUrl"
	colBest     = "bestPosition"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("required column missing")

type columns map[string]int

func indexHeader(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.HasPrefix(h, colVoices) {
			if _, seen := cols[colVoices]; !seen {
				cols[colVoices] = i
			}
			continue
		}
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}
	return cols
}

func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// Result is the outcome of a conversion.
type Result struct {
	Songs      []catalog.Song
	Skipped    int
	Duplicates int
}

// Convert reads CSV rows and builds catalog songs. Rows without title or
// artist are skipped and counted; rows repeating an earlier ID are dropped.
func Convert(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	for _, required := range []string{colTitle, colArtist} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: %w", required, ErrMissingColumn)
		}
	}

	res := &Result{}
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				log.Warn().Err(err).Msg("Skipping malformed row")
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}

		title := cols.get(record, colTitle)
		artist := cols.get(record, colArtist)
		if title == "" || artist == "" {
			res.Skipped++
			continue
		}

		id := cols.get(record, colID)
		if id == "" {
			line, _ := reader.FieldPos(0)
			id = fmt.Sprintf("song-%d", line-1)
		}
		if seen[id] {
			res.Duplicates++
			continue
		}
		seen[id] = true

		audioURL := cols.get(record, colMedia)
		if audioURL == "" {
			audioURL = cols.get(record, colYouTube)
		}

		res.Songs = append(res.Songs, catalog.Song{
			ID:            id,
			Title:         title,
			Artist:        artist,
			DisplayName:   catalog.FormatDisplayName(title, artist),
			AudioURL:      audioURL,
			Genre:         CleanGenre(cols.get(record, colGenre)),
			Decade:        NormalizeDecade(cols.get(record, colDecade)),
			Country:       orUnknown(cols.get(record, colCountry)),
			Language:      orUnknown(cols.get(record, colLanguage)),
			Voices:        NormalizeVoices(cols.get(record, colVoices)),
			ImageURL:      cols.get(record, colCover),
			NumberOneDate: FormatSpanishDate(cols.get(record, colDate)),
			SpotifyURL:    cols.get(record, colSpotify),
			BestPosition:  cols.get(record, colBest),
		})
	}

	return res, nil
}

// ConvertFile converts the CSV file at path.
func ConvertFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	res, err := Convert(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// WriteCatalog writes songs as an indented JSON array.
func WriteCatalog(path string, songs []catalog.Song) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
