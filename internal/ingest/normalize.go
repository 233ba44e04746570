package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/edumarques81/songdle/internal/domain/catalog"
)

var (
	// Anything that is not a letter, digit, underscore, space, slash or
	// hyphen. Letters include accented ones.
	genreJunk = regexp.MustCompile(`[^\p{L}\p{N}_\s/\-]`)
	twoDigits = regexp.MustCompile(`\d{2}`)
)

// CleanGenre strips emoji and punctuation from a genre label.
func CleanGenre(raw string) string {
	g := strings.TrimSpace(genreJunk.ReplaceAllString(raw, ""))
	if g == "" {
		return catalog.Unknown
	}
	return g
}

// NormalizeDecade turns labels like "Los 90" or "Los 05" into "1990s" or
// "2005s". Two-digit values of 90 and above belong to the 1900s. Labels
// without two digits are returned unchanged.
func NormalizeDecade(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return catalog.Unknown
	}

	m := twoDigits.FindString(raw)
	if m == "" {
		return raw
	}
	yy, _ := strconv.Atoi(m)
	if yy >= 90 {
		return fmt.Sprintf("19%ds", yy)
	}
	return fmt.Sprintf("20%02ds", yy)
}

// NormalizeVoices maps the plural vocal labels to the singular ones used by
// the game.
func NormalizeVoices(raw string) string {
	v := strings.TrimSpace(strings.NewReplacer("\r", "", "\n", "").Replace(raw))
	switch v {
	case "":
		return catalog.Unknown
	case "Masculinas":
		return "Masculino"
	case "Femeninas":
		return "Femenino"
	default:
		return v
	}
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return catalog.Unknown
	}
	return v
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// FormatSpanishDate rewrites a chart date as "15 de octubre de 2020".
// Unparseable dates yield "".
func FormatSpanishDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
	}
	return ""
}
