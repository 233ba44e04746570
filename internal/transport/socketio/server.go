// Package socketio provides the Socket.io server the game client talks to.
package socketio

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/songdle/internal/analytics"
	"github.com/edumarques81/songdle/internal/app"
	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/domain/game"
	"github.com/edumarques81/songdle/internal/domain/stats"
)

// SuggestionLimit caps the songs sent in one pushSuggestions.
const SuggestionLimit = 20

const pushWindow = 15 * time.Millisecond

// Server handles Socket.io connections and game events.
type Server struct {
	io       *socket.Server
	app      *app.App
	relay    *PlaybackRelay
	limiter  *ConnLimiter
	debounce *PushDebouncer

	mu      sync.RWMutex
	clients map[string]*socket.Socket // socket ID -> socket
	players map[string]string         // socket ID -> player ID
	sockets map[string]int            // player ID -> open sockets
}

// NewServer creates the Socket.io server. relay may be nil when playback
// does not happen in the browser.
func NewServer(a *app.App, relay *PlaybackRelay, maxRemote int) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	s := &Server{
		io:      socket.NewServer(nil, opts),
		app:     a,
		relay:   relay,
		limiter: NewConnLimiter(maxRemote),
		clients: make(map[string]*socket.Socket),
		players: make(map[string]string),
		sockets: make(map[string]int),
	}
	s.debounce = NewPushDebouncer(pushWindow, s.pushState, s.pushStats)

	if relay != nil {
		relay.attach(s.emitToPlayer)
	}
	a.OnChange(s.handleChange)
	s.setupHandlers()

	return s, nil
}

// handleChange is called by sessions after every transition.
func (s *Server) handleChange(playerID string, snap game.Snapshot) {
	kind := pushKindState
	if snap.GameWon || snap.GameLost {
		kind = pushKindStats
	}
	s.debounce.Trigger(playerID, kind)
}

func room(playerID string) socket.Room {
	return socket.Room("player:" + playerID)
}

func (s *Server) emitToPlayer(playerID, event string, payload any) {
	s.io.To(room(playerID)).Emit(event, payload)
}

func (s *Server) connected(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sockets[playerID] > 0
}

func (s *Server) pushState(playerID string) {
	if !s.connected(playerID) {
		return
	}
	sess, err := s.app.Session(playerID)
	if err != nil {
		log.Error().Err(err).Str("player", playerID).Msg("Failed to get session")
		return
	}
	s.emitToPlayer(playerID, "pushState", sess.Snapshot())
}

func (s *Server) pushStats(playerID string) {
	if !s.connected(playerID) {
		return
	}
	view, err := s.statsView(playerID)
	if err != nil {
		log.Error().Err(err).Str("player", playerID).Msg("Failed to get stats")
		return
	}
	s.emitToPlayer(playerID, "pushStats", view)
}

// StatsView is the pushStats payload.
type StatsView struct {
	stats.Statistics
	WinPercentage int     `json:"winPercentage"`
	AverageTime   float64 `json:"averageTime"`
}

func (s *Server) statsView(playerID string) (StatsView, error) {
	st, err := s.app.Stats(playerID)
	if err != nil {
		return StatsView{}, err
	}
	return StatsView{
		Statistics:    st,
		WinPercentage: st.WinPercentage(),
		AverageTime:   st.AverageTime(),
	}, nil
}

// SuggestionView is one entry of pushSuggestions.
type SuggestionView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

func suggestions(songs []catalog.Song) []SuggestionView {
	out := make([]SuggestionView, len(songs))
	for i, song := range songs {
		out[i] = SuggestionView{ID: song.ID, DisplayName: song.DisplayName}
	}
	return out
}

// playerIDFrom accepts a client-supplied ID only when it is a UUID.
func playerIDFrom(args []any) string {
	id := stringArg(args, "playerId")
	if _, err := uuid.Parse(id); err != nil {
		return uuid.NewString()
	}
	return id
}

func payload(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	m, _ := args[0].(map[string]any)
	return m
}

func stringArg(args []any, key string) string {
	if m := payload(args); m != nil {
		v, _ := m[key].(string)
		return v
	}
	return ""
}

func boolArg(args []any, key string) bool {
	if m := payload(args); m != nil {
		v, _ := m[key].(bool)
		return v
	}
	return false
}

func intArg(args []any, key string) int {
	if m := payload(args); m != nil {
		if v, ok := m[key].(float64); ok {
			return int(v)
		}
	}
	return 0
}

// quietErr reports errors the client causes by racing the UI, such as
// submitting before listening. They are not worth an error log.
func quietErr(err error) bool {
	return errors.Is(err, game.ErrEmptyGuess) ||
		errors.Is(err, game.ErrNotListened) ||
		errors.Is(err, game.ErrSessionOver) ||
		errors.Is(err, game.ErrListenBudgetExhausted) ||
		errors.Is(err, game.ErrGameInProgress)
}

func logEventErr(event, playerID string, err error) {
	if quietErr(err) {
		log.Debug().Err(err).Str("player", playerID).Msg(event + " ignored")
		return
	}
	log.Error().Err(err).Str("player", playerID).Msg(event + " failed")
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		addr := client.Handshake().Address

		log.Info().Str("id", clientID).Str("addr", addr).Msg("Client connected")

		if evicted := s.limiter.Admit(clientID, addr); evicted != "" {
			s.mu.RLock()
			old := s.clients[evicted]
			s.mu.RUnlock()
			if old != nil {
				log.Warn().Str("id", evicted).Msg("Connection limit reached, disconnecting oldest client")
				old.Disconnect(true)
			}
		}

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				reason, _ = args[0].(string)
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")
			s.limiter.Remove(clientID)
			s.forget(clientID)
		})

		client.On("hello", func(args ...any) {
			playerID := playerIDFrom(args)
			s.bind(client, clientID, playerID)

			client.Emit("pushIdentity", map[string]any{"playerId": playerID})
			s.sendState(client, playerID)
			s.sendTutorial(client, playerID)
			if view, err := s.statsView(playerID); err == nil {
				client.Emit("pushStats", view)
			}
		})

		// on registers a handler that needs a bound player.
		on := func(event string, fn func(playerID string, sess *game.Session, args []any)) {
			client.On(event, func(args ...any) {
				playerID := s.playerOf(clientID)
				if playerID == "" {
					log.Debug().Str("id", clientID).Str("event", event).Msg("Event before hello")
					return
				}
				sess, err := s.app.Session(playerID)
				if err != nil {
					log.Error().Err(err).Str("player", playerID).Msg("Failed to get session")
					return
				}
				log.Debug().Str("id", clientID).Str("event", event).Msg("Game event")
				fn(playerID, sess, args)
			})
		}

		on("getState", func(playerID string, _ *game.Session, _ []any) {
			s.sendState(client, playerID)
		})

		on("play", func(playerID string, sess *game.Session, _ []any) {
			if err := sess.Play(); err != nil {
				logEventErr("Play", playerID, err)
				s.sendState(client, playerID)
			}
		})

		on("pause", func(_ string, sess *game.Session, _ []any) {
			sess.Pause()
		})

		on("playbackState", func(playerID string, _ *game.Session, args []any) {
			s.app.SyncPlayback(playerID, normalizeState(stringArg(args, "state")))
		})

		on("updateGuess", func(_ string, sess *game.Session, args []any) {
			text := stringArg(args, "text")
			sess.UpdateGuessText(text, boolArg(args, "selected"))
			client.Emit("pushSuggestions", suggestions(s.app.Suggest(text, SuggestionLimit)))
		})

		on("getSuggestions", func(_ string, _ *game.Session, args []any) {
			client.Emit("pushSuggestions", suggestions(s.app.Suggest(stringArg(args, "text"), SuggestionLimit)))
		})

		on("submitGuess", func(playerID string, sess *game.Session, _ []any) {
			if _, err := sess.SubmitGuess(); err != nil {
				logEventErr("Submit", playerID, err)
			}
		})

		on("reset", func(_ string, sess *game.Session, _ []any) {
			sess.Reset()
		})

		on("getStats", func(playerID string, _ *game.Session, _ []any) {
			s.app.Track(playerID, analytics.StatsOpened())
			if view, err := s.statsView(playerID); err == nil {
				client.Emit("pushStats", view)
			}
		})

		on("share", func(playerID string, sess *game.Session, args []any) {
			method := stringArg(args, "method")
			if method == "" {
				method = "clipboard"
			}
			text, err := sess.Share(method)
			if err != nil {
				logEventErr("Share", playerID, err)
				return
			}
			client.Emit("pushShare", map[string]any{"text": text, "method": method})
		})

		on("getTutorial", func(playerID string, _ *game.Session, _ []any) {
			s.sendTutorial(client, playerID)
		})

		on("tutorialOpened", func(playerID string, _ *game.Session, _ []any) {
			s.app.Track(playerID, analytics.TutorialOpened())
		})

		on("tutorialSeen", func(playerID string, _ *game.Session, _ []any) {
			if err := s.app.MarkTutorialSeen(playerID); err != nil {
				log.Error().Err(err).Str("player", playerID).Msg("Failed to save tutorial flag")
			}
			s.sendTutorial(client, playerID)
		})

		on("clueExpanded", func(playerID string, _ *game.Session, args []any) {
			s.app.Track(playerID, analytics.ClueExpanded(stringArg(args, "clue"), intArg(args, "attempt")))
		})
	})
}

func (s *Server) sendState(client *socket.Socket, playerID string) {
	sess, err := s.app.Session(playerID)
	if err != nil {
		log.Error().Err(err).Str("player", playerID).Msg("Failed to get session")
		return
	}
	client.Emit("pushState", sess.Snapshot())
}

func (s *Server) sendTutorial(client *socket.Socket, playerID string) {
	client.Emit("pushTutorial", map[string]any{"seen": s.app.TutorialSeen(playerID)})
}

// bind attaches a socket to a player, replacing any earlier binding.
func (s *Server) bind(client *socket.Socket, clientID, playerID string) {
	s.mu.Lock()
	if prev, ok := s.players[clientID]; ok {
		if prev == playerID {
			s.mu.Unlock()
			return
		}
		s.sockets[prev]--
		client.Leave(room(prev))
	}
	s.players[clientID] = playerID
	s.sockets[playerID]++
	s.mu.Unlock()

	client.Join(room(playerID))
	log.Info().Str("id", clientID).Str("player", playerID).Msg("Player identified")
}

func (s *Server) playerOf(clientID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[clientID]
}

// forget drops a socket and releases the player's session once their last
// socket is gone.
func (s *Server) forget(clientID string) {
	s.mu.Lock()
	delete(s.clients, clientID)
	playerID, ok := s.players[clientID]
	delete(s.players, clientID)
	last := false
	if ok {
		s.sockets[playerID]--
		if s.sockets[playerID] <= 0 {
			delete(s.sockets, playerID)
			last = true
		}
	}
	s.mu.Unlock()

	if last {
		s.app.Release(playerID)
	}
}

// Clients returns the number of connected sockets.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close stops pushes and closes the Socket.io server.
func (s *Server) Close() error {
	s.debounce.Stop()
	s.io.Close(nil)
	return nil
}

// normalizeState maps the HTML media element's event names onto player
// states understood by the audio controller.
func normalizeState(state string) string {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "play", "playing":
		return "play"
	case "pause", "paused":
		return "pause"
	default:
		return "stop"
	}
}
