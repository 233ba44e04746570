package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/domain/daily"
)

// loadCatalog reads path, or returns the built-in catalog when path is empty.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		log.Debug().Msg("Using built-in catalog")
		return catalog.Default()
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newSelector(songs *catalog.Catalog, tz string, fixedIndex int) (*daily.Selector, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", tz, err)
	}
	return daily.NewSelector(songs, daily.WithLocation(loc), daily.WithFixedIndex(fixedIndex)), nil
}

func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
