package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Log levels accepted by log_level.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

var hexColor = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// Config holds the user-tunable settings. Every key is optional; missing keys
// keep the values from DefaultConfig.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Size and attributes of new note windows.
	DefaultWidth    int    `yaml:"default_width"`
	DefaultHeight   int    `yaml:"default_height"`
	BackgroundColor string `yaml:"background_color"`
	TextColor       string `yaml:"text_color"`
	FontSize        int    `yaml:"font_size"`

	// NewNoteBase is the top-left origin of the cascade used for new notes.
	NewNoteBase int `yaml:"new_note_base"`

	// Relocation of windows whose monitor disappeared.
	RelocateInset int `yaml:"relocate_inset"`
	EdgeMargin    int `yaml:"edge_margin"`

	// ScaleFactor converts logical to physical pixels. X11 does not report
	// a per-window scale, so it is configured here.
	ScaleFactor float64 `yaml:"scale_factor"`

	// AutosaveInterval is how often moved or resized windows are persisted.
	// Zero disables the autosave loop.
	AutosaveInterval   time.Duration `yaml:"autosave_interval"`
	RestoreParallelism int           `yaml:"restore_parallelism"`

	NewNoteHotkey string `yaml:"new_note_hotkey"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:           LogLevelInfo,
		DefaultWidth:       400,
		DefaultHeight:      300,
		BackgroundColor:    "#FEFCE8",
		TextColor:          "#333333",
		FontSize:           14,
		NewNoteBase:        150,
		RelocateInset:      100,
		EdgeMargin:         50,
		ScaleFactor:        1.0,
		AutosaveInterval:   30 * time.Second,
		RestoreParallelism: 4,
		NewNoteHotkey:      "Mod4-Shift-n",
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
		validation.Field(&c.DefaultWidth, validation.Required, validation.Min(50)),
		validation.Field(&c.DefaultHeight, validation.Required, validation.Min(50)),
		validation.Field(&c.BackgroundColor, validation.Required, validation.Match(hexColor)),
		validation.Field(&c.TextColor, validation.Required, validation.Match(hexColor)),
		validation.Field(&c.FontSize, validation.Required, validation.Min(6), validation.Max(96)),
		validation.Field(&c.NewNoteBase, validation.Min(0)),
		validation.Field(&c.RelocateInset, validation.Min(0)),
		validation.Field(&c.EdgeMargin, validation.Min(0)),
		validation.Field(&c.ScaleFactor, validation.Required, validation.Min(0.25), validation.Max(8.0)),
		validation.Field(&c.AutosaveInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.RestoreParallelism, validation.Required, validation.Min(1)),
	)
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
