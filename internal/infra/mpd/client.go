// Package mpd drives an MPD daemon as a kiosk audio output for the game.
package mpd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned by Ping before Connect succeeds.
var ErrNotConnected = errors.New("mpd: not connected")

// Client wraps a gompd connection and redials when it drops.
type Client struct {
	mu       sync.RWMutex
	conn     *mpd.Client
	watcher  *mpd.Watcher
	host     string
	port     int
	password string
}

// NewClient creates a client for the daemon at host:port. Nothing is dialed
// until the first command.
func NewClient(host string, port int, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		password: password,
	}
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// Connect dials the daemon.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dialLocked()
}

func (c *Client) dialLocked() error {
	log.Info().Str("addr", c.addr()).Msg("Connecting to MPD")

	conn, err := mpd.Dial("tcp", c.addr())
	if err != nil {
		return fmt.Errorf("dial mpd: %w", err)
	}

	if c.password != "" {
		if err := conn.Command("password %s", c.password).OK(); err != nil {
			conn.Close()
			return fmt.Errorf("mpd password: %w", err)
		}
	}

	c.conn = conn
	log.Info().Msg("Connected to MPD")
	return nil
}

// ensureConnected pings the connection and redials if it is gone.
func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return c.dialLocked()
	}

	if err := c.conn.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting")
		c.conn.Close()
		c.conn = nil
		return c.dialLocked()
	}

	return nil
}

// Close closes the connection and any watcher.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// Ping checks the connection without redialing.
func (c *Client) Ping() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.Ping()
}

// do runs fn on a live connection.
func (c *Client) do(fn func(conn *mpd.Client) error) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return fn(c.conn)
}

// State returns the daemon's playback state: "play", "pause" or "stop".
func (c *Client) State() (string, error) {
	var state string
	err := c.do(func(conn *mpd.Client) error {
		attrs, err := conn.Status()
		if err != nil {
			return err
		}
		state = attrs["state"]
		return nil
	})
	return state, err
}

// Load replaces the queue with uri and starts playing it.
func (c *Client) Load(uri string) error {
	return c.do(func(conn *mpd.Client) error {
		if err := conn.Clear(); err != nil {
			return fmt.Errorf("clear queue: %w", err)
		}
		if err := conn.Add(uri); err != nil {
			return fmt.Errorf("add %s: %w", uri, err)
		}
		return conn.Play(0)
	})
}

// Pause pauses (true) or resumes (false) the current track.
func (c *Client) Pause(pause bool) error {
	return c.do(func(conn *mpd.Client) error {
		return conn.Pause(pause)
	})
}

// Stop stops playback.
func (c *Client) Stop() error {
	return c.do(func(conn *mpd.Client) error {
		return conn.Stop()
	})
}

// Watch opens an idle watcher on subsystems. The returned channel receives
// subsystem names and is closed by Close.
func (c *Client) Watch(subsystems ...string) (<-chan string, error) {
	watcher, err := mpd.NewWatcher("tcp", c.addr(), c.password, subsystems...)
	if err != nil {
		return nil, fmt.Errorf("mpd watcher: %w", err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	ch := make(chan string, 10)

	go func() {
		defer close(ch)
		for {
			select {
			case subsystem, ok := <-watcher.Event:
				if !ok {
					return
				}
				ch <- subsystem
			case err, ok := <-watcher.Error:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("MPD watcher error")
				time.Sleep(time.Second)
			}
		}
	}()

	return ch, nil
}
