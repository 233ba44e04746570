// Package config loads server settings from a .env file, the environment and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "SONGDLE"

// Playback modes.
const (
	PlaybackClient = "client"
	PlaybackMPD    = "mpd"
)

// MPDConfig holds MPD connection settings for kiosk playback.
type MPDConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"6600"`
	Password string `envconfig:"PASSWORD"`
	// AudioBase prefixes catalog audio paths starting with "/" so MPD can
	// stream them from this server. Defaults to http://localhost:<port>.
	AudioBase string `envconfig:"AUDIO_BASE"`
}

// OTelConfig holds OTLP metrics exporter settings.
type OTelConfig struct {
	Enabled  bool   `envconfig:"ENABLED"`
	Endpoint string `envconfig:"ENDPOINT"`
	Insecure bool   `envconfig:"INSECURE"`
}

// Config is the game server configuration.
type Config struct {
	Port        string `envconfig:"PORT" default:"3001"`
	DataDir     string `envconfig:"DATA_DIR" default:"data"`
	DBPath      string `envconfig:"DB_PATH"`
	CatalogPath string `envconfig:"CATALOG"`
	StaticDir   string `envconfig:"STATIC_DIR"`
	Debug       bool   `envconfig:"DEBUG"`

	FixedIndex   int           `envconfig:"FIXED_INDEX" default:"2"`
	TimeZone     string        `envconfig:"TIMEZONE" default:"Local"`
	MaxAttempts  int           `envconfig:"MAX_ATTEMPTS" default:"6"`
	MaxListen    time.Duration `envconfig:"MAX_LISTEN" default:"10s"`
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"10ms"`

	Playback               string `envconfig:"PLAYBACK" default:"client"`
	MaxExternalConnections int    `envconfig:"MAX_EXTERNAL_CONNECTIONS" default:"50"`

	MPD  MPDConfig
	OTel OTelConfig
}

// Load reads the given dotenv files (".env" when none are named, missing
// files ignored) and then the SONGDLE_* environment.
func Load(dotenv ...string) (*Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// RegisterFlags binds command-line flags to cfg, using the current values
// as defaults.
func (c *Config) RegisterFlags(flags *flag.FlagSet) {
	flags.StringVar(&c.Port, "port", c.Port, "HTTP server port")
	flags.StringVar(&c.DataDir, "data", c.DataDir, "Data directory")
	flags.StringVar(&c.DBPath, "db", c.DBPath, "SQLite database path (default <data>/songdle.db)")
	flags.StringVar(&c.CatalogPath, "catalog", c.CatalogPath, "Catalog JSON file (built-in catalog when empty)")
	flags.StringVar(&c.StaticDir, "static", c.StaticDir, "Directory to serve static files from (optional)")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	flags.IntVar(&c.FixedIndex, "fixed-index", c.FixedIndex, "Catalog index served when no audio verification data exists")
	flags.StringVar(&c.TimeZone, "tz", c.TimeZone, "Time zone deciding the calendar day")
	flags.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "Guesses per game")
	flags.DurationVar(&c.MaxListen, "max-listen", c.MaxListen, "Listening budget per game")
	flags.DurationVar(&c.TickInterval, "tick", c.TickInterval, "Listening timer resolution")
	flags.StringVar(&c.Playback, "playback", c.Playback, "Playback mode: client or mpd")
	flags.IntVar(&c.MaxExternalConnections, "max-connections", c.MaxExternalConnections, "Maximum concurrent external Socket.IO clients")
	flags.StringVar(&c.MPD.Host, "mpd-host", c.MPD.Host, "MPD host")
	flags.IntVar(&c.MPD.Port, "mpd-port", c.MPD.Port, "MPD port")
	flags.StringVar(&c.MPD.Password, "mpd-password", c.MPD.Password, "MPD password")
	flags.StringVar(&c.MPD.AudioBase, "mpd-audio-base", c.MPD.AudioBase, "Base URL MPD uses to fetch relative audio paths")
	flags.BoolVar(&c.OTel.Enabled, "otel", c.OTel.Enabled, "Export gameplay metrics over OTLP")
	flags.StringVar(&c.OTel.Endpoint, "otel-endpoint", c.OTel.Endpoint, "OTLP gRPC endpoint")
	flags.BoolVar(&c.OTel.Insecure, "otel-insecure", c.OTel.Insecure, "Use an insecure OTLP connection")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Playback {
	case PlaybackClient, PlaybackMPD:
	default:
		return fmt.Errorf("unknown playback mode %q", c.Playback)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.MaxListen <= 0 || c.TickInterval <= 0 {
		return errors.New("listening budget and tick interval must be positive")
	}
	if c.FixedIndex < 0 {
		return fmt.Errorf("fixed index must not be negative, got %d", c.FixedIndex)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// AudioBaseURL returns MPD.AudioBase, defaulting to this server on localhost.
func (c *Config) AudioBaseURL() string {
	if c.MPD.AudioBase != "" {
		return c.MPD.AudioBase
	}
	return "http://localhost:" + c.Port
}

// DatabasePath returns DBPath, defaulting into DataDir.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "songdle.db")
}
