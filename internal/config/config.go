// Package config loads the server settings and the tileset that drives
// layer construction.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"tileview/internal/layer"
)

// EnvPrefix prefixes every environment override, e.g. TILEVIEW_SSH_ADDR.
const EnvPrefix = "TILEVIEW"

// DefaultPath is read when no path is given and TILEVIEW_CONFIG is unset.
const DefaultPath = "config/server.yaml"

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Server struct {
	SSH        SSH    `mapstructure:"ssh"`
	HTTP       HTTP   `mapstructure:"http"`
	MapsDir    string `mapstructure:"maps_dir"`
	DefaultMap string `mapstructure:"default_map"`
	Tileset    string `mapstructure:"tileset"`
	Log        Log    `mapstructure:"log"`
	Render     Render `mapstructure:"render"`
	Cache      Cache  `mapstructure:"cache"`
}

type SSH struct {
	Addr    string `mapstructure:"addr"`
	HostKey string `mapstructure:"host_key"`
}

// HTTP configures the websocket stream. An empty Addr disables it.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Render sizes are in terminal cells per map tile.
type Render struct {
	TileWidth  int    `mapstructure:"tile_width"`
	TileHeight int    `mapstructure:"tile_height"`
	Overdraw   int    `mapstructure:"overdraw"`
	Parallel   bool   `mapstructure:"parallel"`
	SortOrder  string `mapstructure:"sort_order"`
	TickRate   int    `mapstructure:"tick_rate"`
}

type Cache struct {
	PlanTTL    time.Duration `mapstructure:"plan_ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

func Default() Server {
	return Server{
		SSH:     SSH{Addr: ":2222", HostKey: ".ssh/host_key"},
		MapsDir: "maps",
		Log: Log{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Render: Render{
			TileWidth:  4,
			TileHeight: 2,
			Overdraw:   2,
			Parallel:   true,
			SortOrder:  layer.TopDownLeftRight.String(),
			TickRate:   20,
		},
		Cache: Cache{PlanTTL: 30 * time.Second, MaxEntries: 4096},
	}
}

func setDefaults(v *viper.Viper, d Server) {
	v.SetDefault("ssh.addr", d.SSH.Addr)
	v.SetDefault("ssh.host_key", d.SSH.HostKey)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("maps_dir", d.MapsDir)
	v.SetDefault("default_map", d.DefaultMap)
	v.SetDefault("tileset", d.Tileset)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("render.tile_width", d.Render.TileWidth)
	v.SetDefault("render.tile_height", d.Render.TileHeight)
	v.SetDefault("render.overdraw", d.Render.Overdraw)
	v.SetDefault("render.parallel", d.Render.Parallel)
	v.SetDefault("render.sort_order", d.Render.SortOrder)
	v.SetDefault("render.tick_rate", d.Render.TickRate)
	v.SetDefault("cache.plan_ttl", d.Cache.PlanTTL)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
}

// Load reads the config file at path, falling back to TILEVIEW_CONFIG and
// then DefaultPath. A missing file yields the defaults. A .env file in
// the working directory is loaded first so it can supply overrides.
func Load(path string) (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Server{}, fmt.Errorf("read %s: %w", path, err)
		}
		logrus.WithField("path", path).Debug("no config file, using defaults")
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return Server{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) Validate() error {
	r := s.Render
	if r.TileWidth <= 0 || r.TileHeight <= 0 {
		return fmt.Errorf("render tile %dx%d: %w", r.TileWidth, r.TileHeight, ErrInvalidConfig)
	}
	if r.Overdraw < 0 {
		return fmt.Errorf("render overdraw %d: %w", r.Overdraw, ErrInvalidConfig)
	}
	if r.TickRate <= 0 {
		return fmt.Errorf("render tick rate %d: %w", r.TickRate, ErrInvalidConfig)
	}
	if _, err := layer.ParseSortOrder(r.SortOrder); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logrus.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if s.Cache.MaxEntries < 0 || s.Cache.PlanTTL < 0 {
		return fmt.Errorf("cache %+v: %w", s.Cache, ErrInvalidConfig)
	}
	return nil
}

// Order returns the parsed sort order. Validate has checked it.
func (r Render) Order() layer.SortOrder {
	o, _ := layer.ParseSortOrder(r.SortOrder)
	return o
}
