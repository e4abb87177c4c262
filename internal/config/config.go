package config

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hailam/tapedeck/internal/replay"
)

// Config represents the application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Grouping GroupingConfig `yaml:"grouping"`
	Watch    WatchConfig    `yaml:"watch"`
	Import   ImportConfig   `yaml:"import"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Grouping.Validate(); err != nil {
		return err
	}
	return c.Import.Validate()
}

// LogConfig holds logging configuration. File, when set, receives a JSON
// copy of every record.
type LogConfig struct {
	Level slog.Level `yaml:"level"`
	File  string     `yaml:"file"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In(slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError)),
	)
}

// StorageConfig holds the BadgerDB directory. Empty means the platform data
// directory.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// CatalogConfig holds the SQLite catalog path. Empty means catalog.db in the
// platform data directory.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// GroupingConfig holds the move grouping rule.
type GroupingConfig struct {
	RequireOpening bool `yaml:"require_opening"`
	CloseAfter     int  `yaml:"close_after"`
}

// Validate validates the grouping configuration.
func (c *GroupingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CloseAfter, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// Grouping returns the replay grouping the configuration describes.
func (c *GroupingConfig) Grouping() replay.Grouping {
	return replay.Grouping{RequireOpening: c.RequireOpening, CloseAfter: c.CloseAfter}
}

// WatchConfig holds the inbox directory watched for game records. Empty
// means the platform inbox directory.
type WatchConfig struct {
	Inbox string `yaml:"inbox"`
}

// ImportConfig holds import settings.
type ImportConfig struct {
	Workers int `yaml:"workers"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
	)
}

// NewDefault returns a new Config with sensible default values.
func NewDefault() *Config {
	g := replay.DefaultGrouping()
	return &Config{
		Log: LogConfig{
			Level: slog.LevelInfo,
		},
		Grouping: GroupingConfig{
			RequireOpening: g.RequireOpening,
			CloseAfter:     g.CloseAfter,
		},
		Import: ImportConfig{
			Workers: 4,
		},
	}
}
