package socketio

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edumarques81/songdle/internal/app"
	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/domain/game"
	"github.com/edumarques81/songdle/internal/infra/store"
)

func newTestApp(t *testing.T, relay *PlaybackRelay) *app.App {
	t.Helper()
	songs, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	opts := app.Options{
		Catalog: songs,
		Store:   store.NewMemory(),
		Game:    game.DefaultConfig(),
	}
	if relay != nil {
		opts.Players = relay.Player
	}
	return app.New(opts)
}

func newTestServer(t *testing.T, relay *PlaybackRelay) *Server {
	t.Helper()
	s, err := NewServer(newTestApp(t, relay), relay, 2)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t, NewPlaybackRelay())

	if s.Clients() != 0 {
		t.Errorf("expected no clients, got %d", s.Clients())
	}
}

func TestPlayerIDFrom(t *testing.T) {
	known := uuid.NewString()

	if got := playerIDFrom([]any{map[string]any{"playerId": known}}); got != known {
		t.Errorf("valid ID replaced: got %q", got)
	}

	for _, args := range [][]any{
		nil,
		{map[string]any{}},
		{map[string]any{"playerId": "../../etc"}},
		{"not a map"},
	} {
		got := playerIDFrom(args)
		if _, err := uuid.Parse(got); err != nil || got == known {
			t.Errorf("playerIDFrom(%v) = %q, want a fresh UUID", args, got)
		}
	}
}

func TestArgs(t *testing.T) {
	args := []any{map[string]any{
		"text":     "hotel",
		"selected": true,
		"attempt":  float64(3),
		"wrong":    42,
	}}

	if got := stringArg(args, "text"); got != "hotel" {
		t.Errorf("stringArg = %q", got)
	}
	if got := stringArg(args, "wrong"); got != "" {
		t.Errorf("stringArg on non-string = %q", got)
	}
	if !boolArg(args, "selected") || boolArg(args, "missing") {
		t.Error("boolArg mismatch")
	}
	if got := intArg(args, "attempt"); got != 3 {
		t.Errorf("intArg = %d", got)
	}
	if stringArg(nil, "text") != "" || boolArg(nil, "x") || intArg(nil, "x") != 0 {
		t.Error("empty args should yield zero values")
	}
}

func TestQuietErr(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{game.ErrEmptyGuess, true},
		{game.ErrNotListened, true},
		{fmt.Errorf("submit: %w", game.ErrSessionOver), true},
		{game.ErrListenBudgetExhausted, true},
		{game.ErrGameInProgress, true},
		{errors.New("disk full"), false},
	}

	for _, tt := range tests {
		if got := quietErr(tt.err); got != tt.want {
			t.Errorf("quietErr(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNormalizeState(t *testing.T) {
	tests := map[string]string{
		"play":    "play",
		"PLAYING": "play",
		"pause":   "pause",
		"paused":  "pause",
		"ended":   "stop",
		"":        "stop",
	}

	for in, want := range tests {
		if got := normalizeState(in); got != want {
			t.Errorf("normalizeState(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSuggestions(t *testing.T) {
	songs := []catalog.Song{
		{ID: "1", DisplayName: "Hello - Adele"},
		{ID: "2", DisplayName: "Halo - Beyoncé"},
	}

	got := suggestions(songs)
	if len(got) != 2 || got[1].ID != "2" || got[1].DisplayName != "Halo - Beyoncé" {
		t.Errorf("suggestions = %+v", got)
	}
}

func TestStatsView(t *testing.T) {
	s := newTestServer(t, nil)

	view, err := s.statsView("p1")
	if err != nil {
		t.Fatal(err)
	}
	if view.GamesPlayed != 0 || view.WinPercentage != 0 || view.AverageTime != 0 {
		t.Errorf("unexpected fresh stats view: %+v", view)
	}

	if _, err := s.statsView(""); !errors.Is(err, app.ErrNoPlayer) {
		t.Errorf("expected ErrNoPlayer, got %v", err)
	}
}

func TestForgetReleasesLastSocket(t *testing.T) {
	s := newTestServer(t, nil)

	if _, err := s.app.Session("p1"); err != nil {
		t.Fatal(err)
	}
	s.players["a"] = "p1"
	s.players["b"] = "p1"
	s.sockets["p1"] = 2

	s.forget("a")
	if !s.connected("p1") || s.app.Players() != 1 {
		t.Error("player should stay active while a socket remains")
	}

	s.forget("b")
	if s.connected("p1") {
		t.Error("player should be disconnected")
	}
	if s.app.Players() != 0 {
		t.Errorf("session should be released, %d active", s.app.Players())
	}

	s.forget("unknown")
}

func TestChangesForDisconnectedPlayersAreDropped(t *testing.T) {
	s := newTestServer(t, nil)

	s.handleChange("ghost", game.Snapshot{GameWon: true})
	time.Sleep(5 * pushWindow)

	if s.app.Players() != 0 {
		t.Error("a push for a disconnected player must not start a session")
	}
}

func TestPlaybackRelay(t *testing.T) {
	relay := NewPlaybackRelay()
	p := relay.Player("p1")

	// Unattached relays drop commands.
	if err := p.Play("/audio/a.mp3"); err != nil {
		t.Fatal(err)
	}

	type sent struct {
		player, event string
		cmd           PlaybackCommand
	}
	var got []sent
	relay.attach(func(playerID, event string, payload any) {
		got = append(got, sent{playerID, event, payload.(PlaybackCommand)})
	})

	p.Play("/audio/a.mp3")
	p.Pause()
	p.OnEnded(func() {})

	want := []sent{
		{"p1", "pushPlayback", PlaybackCommand{Action: "play", Source: "/audio/a.mp3"}},
		{"p1", "pushPlayback", PlaybackCommand{Action: "pause"}},
	}
	if len(got) != len(want) {
		t.Fatalf("sent %d commands, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
