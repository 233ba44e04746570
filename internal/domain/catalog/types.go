// Package catalog holds the immutable song catalog the game is played against.
package catalog

import "fmt"

// Unknown is the placeholder ingestion writes for missing categorical values.
const Unknown = "Desconocido"

// Song is one catalog entry. Songs are created by the offline ingestion
// tooling and never mutated once a Catalog has been built from them.
type Song struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	DisplayName string `json:"displayName"`
	AudioURL    string `json:"audioUrl"`

	// Clue attributes, compared by exact match.
	Genre    string `json:"genre"`
	Decade   string `json:"decade"`
	Country  string `json:"country"`
	Language string `json:"language"`
	Voices   string `json:"voices"`

	ImageURL      string `json:"imageUrl,omitempty"`
	NumberOneDate string `json:"numberOneDate,omitempty"`
	SpotifyURL    string `json:"spotifyUrl,omitempty"`
	BestPosition  string `json:"bestPosition,omitempty"`

	// AudioWorking is nil until the audio verification pass has run.
	AudioWorking *bool `json:"audioWorking,omitempty"`
}

// FormatDisplayName builds the "{title} - {artist}" label.
func FormatDisplayName(title, artist string) string {
	return fmt.Sprintf("%s - %s", title, artist)
}

// Verified reports whether the audio probe has produced a result for the song.
func (s Song) Verified() bool {
	return s.AudioWorking != nil
}

// Playable reports whether the audio probe confirmed the audio URL.
func (s Song) Playable() bool {
	return s.AudioWorking != nil && *s.AudioWorking
}

// Premium reports whether the song carries both chart history and a
// streaming link.
func (s Song) Premium() bool {
	return s.NumberOneDate != "" && s.SpotifyURL != ""
}
