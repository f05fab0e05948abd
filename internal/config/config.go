// Package config loads station settings from scanline.yaml, SCANLINE_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/scanline/internal/engine"
)

// EnvPrefix is the prefix of environment overrides (SCANLINE_MODEL, ...).
const EnvPrefix = "SCANLINE"

// DefaultFileName is the config file searched for when none is given.
const DefaultFileName = "scanline"

// Shifts accepted in the shift setting.
var Shifts = []string{"DAY", "NIGHT", "SWING"}

// Config holds the station settings.
type Config struct {
	// Model labels the production run. Upper-cased on load.
	Model string `mapstructure:"model"`

	// Patterns is the space-delimited acceptance list. In the file it may
	// also be written as a YAML list.
	Patterns string `mapstructure:"-"`

	Shift    string `mapstructure:"shift"`
	Operator string `mapstructure:"operator"`
	Station  string `mapstructure:"station"`

	// DB is the SQLite ledger path.
	DB string `mapstructure:"db"`

	// Stages is the CUE stage registry path.
	Stages string `mapstructure:"stages"`

	// ExportDir is where `export` writes when no --out is given.
	ExportDir string `mapstructure:"export_dir"`

	// Timezone names the location used for record timestamps ("" = local).
	Timezone string `mapstructure:"timezone"`

	// File is the config file actually read, "" if none.
	File string `mapstructure:"-"`
}

// setDefaults registers every key so that env overrides reach Unmarshal
// even when the file does not mention the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "")
	v.SetDefault("patterns", "")
	v.SetDefault("operator", "")
	v.SetDefault("timezone", "")
	v.SetDefault("db", "scanline.db")
	v.SetDefault("stages", "stages.cue")
	v.SetDefault("export_dir", ".")
	v.SetDefault("shift", "DAY")
	v.SetDefault("station", "station-1")
}

// Load reads configuration.
//
// If path is empty, scanline.yaml is looked up in the working directory and
// a missing file is not an error. flags, if non-nil, are bound by name
// (model, patterns, shift, operator, station, db, stages, export-dir,
// timezone) and override everything else when set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Patterns = patternString(v.Get("patterns"))
	cfg.File = v.ConfigFileUsed()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"model":      "model",
	"patterns":   "patterns",
	"shift":      "shift",
	"operator":   "operator",
	"station":    "station",
	"db":         "db",
	"stages":     "stages",
	"export-dir": "export_dir",
	"timezone":   "timezone",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

// patternString accepts either a space-delimited string or a list.
func patternString(raw any) string {
	switch p := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.Join(strings.Fields(p), " ")
	case []string:
		return strings.Join(strings.Fields(strings.Join(p, " ")), " ")
	case []any:
		parts := make([]string, 0, len(p))
		for _, item := range p {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	default:
		return strings.TrimSpace(fmt.Sprint(p))
	}
}

func (c *Config) normalize() error {
	c.Model = strings.ToUpper(strings.TrimSpace(c.Model))
	c.Operator = strings.TrimSpace(c.Operator)
	c.Station = strings.TrimSpace(c.Station)

	c.Shift = strings.ToUpper(strings.TrimSpace(c.Shift))
	if c.Shift != "" && !validShift(c.Shift) {
		return &Error{Key: "shift", Message: fmt.Sprintf("%q is not one of %s", c.Shift, strings.Join(Shifts, ", "))}
	}

	if _, err := c.Location(); err != nil {
		return &Error{Key: "timezone", Message: err.Error()}
	}
	return nil
}

func validShift(s string) bool {
	for _, shift := range Shifts {
		if s == shift {
			return true
		}
	}
	return false
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Now returns the current time in the configured zone.
func (c *Config) Now() time.Time {
	loc, err := c.Location()
	if err != nil {
		return time.Now()
	}
	return time.Now().In(loc)
}

// Session converts the settings into the engine's session context.
func (c *Config) Session() engine.Session {
	return engine.Session{
		ModelName: c.Model,
		Patterns:  c.Patterns,
		Shift:     c.Shift,
		Operator:  c.Operator,
	}
}

// Error reports an invalid setting.
type Error struct {
	Key     string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}
