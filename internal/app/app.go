// Package app holds the game server's shared state: the catalog, the daily
// selector, persistence and one game session per player.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/analytics"
	"github.com/edumarques81/songdle/internal/audio"
	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/domain/daily"
	"github.com/edumarques81/songdle/internal/domain/game"
	"github.com/edumarques81/songdle/internal/domain/stats"
	"github.com/edumarques81/songdle/internal/infra/store"
)

// ErrNoPlayer is returned for a blank player ID.
var ErrNoPlayer = errors.New("player id required")

// PlayerFactory returns the audio backend for a player. It is called once
// per player.
type PlayerFactory func(playerID string) audio.Player

// Options configures an App.
type Options struct {
	Catalog  *catalog.Catalog
	Selector *daily.Selector
	Store    store.KV
	// Tracker may be nil.
	Tracker analytics.Tracker
	Players PlayerFactory
	Game    game.Config
	// Clock drives sessions and decides the current day. Defaults to the
	// system clock.
	Clock game.Clock
}

type player struct {
	id      string
	kv      store.KV
	stats   *stats.Store
	audio   *audio.Controller
	tracker analytics.Tracker
	session *game.Session
}

// App is safe for concurrent use.
type App struct {
	catalog  *catalog.Catalog
	selector *daily.Selector
	kv       store.KV
	tracker  analytics.Tracker
	players  PlayerFactory
	gameCfg  game.Config
	clock    game.Clock

	mu       sync.Mutex
	active   map[string]*player
	onChange func(playerID string, snap game.Snapshot)
}

// New creates the app context.
func New(opts Options) *App {
	a := &App{
		catalog:  opts.Catalog,
		selector: opts.Selector,
		kv:       opts.Store,
		tracker:  opts.Tracker,
		players:  opts.Players,
		gameCfg:  opts.Game,
		clock:    opts.Clock,
		active:   make(map[string]*player),
	}
	if a.tracker == nil {
		a.tracker = analytics.NoOp{}
	}
	if a.clock == nil {
		a.clock = game.SystemClock{}
	}
	if a.selector == nil {
		a.selector = daily.NewSelector(a.catalog)
	}
	return a
}

// Catalog returns the song catalog.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// OnChange registers fn to receive every session's snapshots. Register it
// before the first session is created.
func (a *App) OnChange(fn func(playerID string, snap game.Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// Today returns the calendar day string and the puzzle number for now.
func (a *App) Today() (day string, number int) {
	now := a.clock.Now().In(a.selector.Location())
	return now.Format(stats.DateLayout), a.selector.DayOfYear(now)
}

// Pick returns today's song.
func (a *App) Pick() (daily.Pick, error) {
	return a.selector.Select(a.clock.Now())
}

func (a *App) newPlayer(playerID string, backend audio.Player) *player {
	kv := store.Namespace(a.kv, playerID)
	return &player{
		id:      playerID,
		kv:      kv,
		stats:   stats.NewStore(kv),
		audio:   audio.NewController(backend),
		tracker: analytics.ForPlayer(a.tracker, playerID),
	}
}

func (a *App) playerLocked(playerID string) *player {
	if p, ok := a.active[playerID]; ok {
		return p
	}
	var backend audio.Player = silent{}
	if a.players != nil {
		backend = a.players(playerID)
	}
	p := a.newPlayer(playerID, backend)
	a.active[playerID] = p
	return p
}

func (a *App) startSession(p *player) (*game.Session, error) {
	day, number := a.Today()
	pick, err := a.Pick()
	if err != nil {
		return nil, fmt.Errorf("select song: %w", err)
	}

	s := game.NewSession(game.Params{
		Day:     day,
		Number:  number,
		Target:  pick.Song,
		Songs:   a.catalog,
		Player:  p.audio,
		Clock:   a.clock,
		Store:   p.kv,
		Stats:   p.stats,
		Tracker: p.tracker,
		Config:  a.gameCfg,
	})

	log.Debug().
		Str("player", p.id).
		Str("day", day).
		Str("tier", string(pick.Tier)).
		Int("index", pick.Index).
		Msg("Session started")
	return s, nil
}

// Session returns the player's session for today, starting a new one when
// the day has changed since the last call. The player stays live until
// Release.
func (a *App) Session(playerID string) (*game.Session, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrNoPlayer
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.playerLocked(playerID)
	day, _ := a.Today()
	if p.session != nil && p.session.Day() == day {
		return p.session, nil
	}

	s, err := a.startSession(p)
	if err != nil {
		return nil, err
	}
	if p.session != nil {
		log.Info().Str("player", playerID).Str("day", day).Msg("Day changed, starting new game")
		p.session.Close()
	}
	if fn := a.onChange; fn != nil {
		s.OnChange(func(snap game.Snapshot) { fn(playerID, snap) })
	}
	p.session = s
	return s, nil
}

// View runs fn on the player's session without making the player live. A
// live session for today is used as is; otherwise a silent session is
// restored from the store for the duration of fn.
func (a *App) View(playerID string, fn func(*game.Session)) error {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return ErrNoPlayer
	}

	day, _ := a.Today()
	a.mu.Lock()
	p, ok := a.active[playerID]
	a.mu.Unlock()
	if ok && p.session != nil && p.session.Day() == day {
		fn(p.session)
		return nil
	}

	s, err := a.startSession(a.newPlayer(playerID, silent{}))
	if err != nil {
		return err
	}
	defer s.Close()
	fn(s)
	return nil
}

// Stats returns the player's statistics. It does not make the player live.
func (a *App) Stats(playerID string) (stats.Statistics, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return stats.Statistics{}, ErrNoPlayer
	}
	return stats.NewStore(store.Namespace(a.kv, playerID)).Load(), nil
}

// Track sends e attributed to the player.
func (a *App) Track(playerID string, e analytics.Event) {
	analytics.ForPlayer(a.tracker, playerID).Track(context.Background(), e)
}

// TutorialSeen reports whether the player dismissed the tutorial.
func (a *App) TutorialSeen(playerID string) bool {
	data, err := store.Namespace(a.kv, playerID).Get(store.KeyTutorialSeen)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("player", playerID).Msg("Failed to read tutorial flag")
		}
		return false
	}
	var seen bool
	if err := json.Unmarshal(data, &seen); err != nil {
		return false
	}
	return seen
}

// MarkTutorialSeen records that the player dismissed the tutorial.
func (a *App) MarkTutorialSeen(playerID string) error {
	if strings.TrimSpace(playerID) == "" {
		return ErrNoPlayer
	}
	return store.Namespace(a.kv, playerID).Set(store.KeyTutorialSeen, []byte("true"))
}

// Suggest returns catalog songs for the guess input.
func (a *App) Suggest(text string, limit int) []catalog.Song {
	songs := a.catalog.Suggest(text)
	if limit > 0 && len(songs) > limit {
		songs = songs[:limit]
	}
	return songs
}

// SyncPlayback applies a playback state reported by the player's own audio
// element ("play", "pause", "stop" or "ended").
func (a *App) SyncPlayback(playerID, state string) {
	a.mu.Lock()
	p, ok := a.active[playerID]
	a.mu.Unlock()
	if !ok {
		return
	}
	if p.audio.Sync(state) {
		log.Debug().Str("player", playerID).Str("state", state).Msg("Playback state synced")
	}
}

// Release stops the player's session and forgets it. The next call to
// Session restores it from the store.
func (a *App) Release(playerID string) {
	a.mu.Lock()
	p, ok := a.active[playerID]
	delete(a.active, playerID)
	a.mu.Unlock()

	if ok && p.session != nil {
		p.session.Close()
	}
}

// Players returns the number of players with a live session.
func (a *App) Players() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.active)
}

// Close stops every session and flushes the tracker.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	players := a.active
	a.active = make(map[string]*player)
	a.mu.Unlock()

	for _, p := range players {
		if p.session != nil {
			p.session.Close()
		}
	}

	if c, ok := a.tracker.(analytics.Closer); ok {
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("close tracker: %w", err)
		}
	}
	return nil
}

// silent is the audio backend used when no factory is configured.
type silent struct{}

func (silent) Play(string) error { return nil }
func (silent) Pause() error      { return nil }
func (silent) OnEnded(func())    {}

// RunDayWatcher checks every interval whether the day has rolled over and
// moves live sessions to the new day. It returns when ctx is done.
func (a *App) RunDayWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.rollover()
		}
	}
}

func (a *App) rollover() {
	day, _ := a.Today()

	a.mu.Lock()
	var stale []string
	for id, p := range a.active {
		if p.session != nil && p.session.Day() != day {
			stale = append(stale, id)
		}
	}
	a.mu.Unlock()

	for _, id := range stale {
		s, err := a.Session(id)
		if err != nil {
			log.Error().Err(err).Str("player", id).Msg("Failed to start new day")
			continue
		}
		if fn := a.changeHandler(); fn != nil {
			fn(id, s.Snapshot())
		}
	}
}

func (a *App) changeHandler() func(string, game.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.onChange
}
