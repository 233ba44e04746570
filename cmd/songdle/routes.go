package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/songdle/internal/app"
	"github.com/edumarques81/songdle/internal/domain/game"
	"github.com/edumarques81/songdle/internal/version"
)

// routes holds what the HTTP handlers need.
type routes struct {
	app       *app.App
	socket    http.Handler
	staticDir string
	// health reports the playback backend status; nil means always healthy.
	health func() error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// playerID returns the caller's player ID, or "" unless it is a UUID.
func playerID(r *http.Request) string {
	id := r.URL.Query().Get("player")
	if id == "" {
		id = r.Header.Get("X-Player-ID")
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

func (rt *routes) handler() http.Handler {
	mux := http.NewServeMux()

	if rt.socket != nil {
		mux.Handle("/socket.io/", rt.socket)
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if rt.health != nil {
			if err := rt.health(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "error", "playback": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "players": rt.app.Players()})
	})

	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, version.GetInfo())
	})

	mux.HandleFunc("/api/v1/state", func(w http.ResponseWriter, r *http.Request) {
		var snap game.Snapshot
		err := rt.app.View(playerID(r), func(s *game.Session) { snap = s.Snapshot() })
		if err != nil {
			rt.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("/api/v1/stats", func(w http.ResponseWriter, r *http.Request) {
		st, err := rt.app.Stats(playerID(r))
		if err != nil {
			rt.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"stats":         st,
			"winPercentage": st.WinPercentage(),
			"averageTime":   st.AverageTime(),
		})
	})

	mux.HandleFunc("/api/v1/suggest", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 20
		}
		type suggestion struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		}
		songs := rt.app.Suggest(r.URL.Query().Get("q"), limit)
		out := make([]suggestion, len(songs))
		for i, s := range songs {
			out[i] = suggestion{ID: s.ID, DisplayName: s.DisplayName}
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("/api/v1/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var snap game.Snapshot
		err := rt.app.View(playerID(r), func(s *game.Session) {
			s.Reset()
			snap = s.Snapshot()
		})
		if err != nil {
			rt.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	// Serve static files if directory specified (SPA mode)
	if rt.staticDir != "" {
		log.Info().Str("dir", rt.staticDir).Msg("Serving static files")
		files := http.FileServer(http.Dir(rt.staticDir))
		index := filepath.Join(rt.staticDir, "index.html")
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := filepath.Join(rt.staticDir, filepath.FromSlash(r.URL.Path))
			if r.URL.Path == "/" {
				path = index
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				// Unknown paths are client-side routes.
				http.ServeFile(w, r, index)
				return
			}
			files.ServeHTTP(w, r)
		})
	}

	return corsMiddleware(mux)
}

func (rt *routes) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrNoPlayer) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Error().Err(err).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
