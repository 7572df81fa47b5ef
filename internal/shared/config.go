package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database      DatabaseConfig      `toml:"database"`
	Store         StoreConfig         `toml:"store"`
	Log           LogConfig           `toml:"log"`
	Matcher       MatcherConfig       `toml:"matcher"`
	Normalization NormalizationConfig `toml:"normalization"`
	Search        SearchConfig        `toml:"search"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StoreConfig selects the match store engine.
type StoreConfig struct {
	Engine  string `toml:"engine"`
	History bool   `toml:"history"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// MatcherConfig contains the scoring weights, confidence thresholds and cache lookup policy.
type MatcherConfig struct {
	TitleWeight      float64          `toml:"title_weight"`
	ArtistWeight     float64          `toml:"artist_weight"`
	AlbumWeight      float64          `toml:"album_weight"`
	SymmetricArtists bool             `toml:"symmetric_artists"`
	FoldAccents      bool             `toml:"fold_accents"`
	Thresholds       ThresholdsConfig `toml:"thresholds"`
	Cache            CacheConfig      `toml:"cache"`
}

// ThresholdsConfig holds the confidence bands.
//
// Medium promotes a match to the cache, Low demotes it to a failure record.
type ThresholdsConfig struct {
	High   float64 `toml:"high"`
	Medium float64 `toml:"medium"`
	Low    float64 `toml:"low"`
}

// CacheConfig constrains which cached matches are trusted on lookup.
type CacheConfig struct {
	MinConfidence float64 `toml:"min_confidence"`
	MaxAgeDays    int     `toml:"max_age_days"`
}

// NormalizationConfig is the text normalization table.
type NormalizationConfig struct {
	FillerWords       []string          `toml:"filler_words"`
	VersionQualifiers []string          `toml:"version_qualifiers"`
	Substitutions     map[string]string `toml:"substitutions"`
}

// SearchConfig tunes how the playlist engine queries the destination catalog.
type SearchConfig struct {
	Rate            float64 `toml:"rate"`
	Burst           int     `toml:"burst"`
	Limit           int     `toml:"limit"`
	Workers         int     `toml:"workers"`
	AcceptThreshold float64 `toml:"accept_threshold"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes TOML data on top of [DefaultConfig] and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()

	// Decoding merges into the default map, so a substitutions table in the file replaces it instead.
	var overlay struct {
		Normalization struct {
			Substitutions map[string]string `toml:"substitutions"`
		} `toml:"normalization"`
	}

	meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := toml.Decode(string(data), &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if meta.IsDefined("normalization", "substitutions") {
		config.Normalization.Substitutions = overlay.Normalization.Substitutions
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks value ranges. Weights summing to something other than 1.0 is allowed.
func (c *Config) Validate() error {
	m := c.Matcher
	for name, w := range map[string]float64{
		"title_weight":  m.TitleWeight,
		"artist_weight": m.ArtistWeight,
		"album_weight":  m.AlbumWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: matcher.%s must be within [0, 1], got %v", ErrInvalidConfig, name, w)
		}
	}

	t := m.Thresholds
	if !inUnit(t.High) || !inUnit(t.Medium) || !inUnit(t.Low) {
		return fmt.Errorf("%w: thresholds must be within [0, 1]", ErrInvalidConfig)
	}
	if t.Low > t.Medium || t.Medium > t.High {
		return fmt.Errorf("%w: thresholds must satisfy low <= medium <= high, got %v/%v/%v", ErrInvalidConfig, t.Low, t.Medium, t.High)
	}

	if !inUnit(m.Cache.MinConfidence) {
		return fmt.Errorf("%w: cache.min_confidence must be within [0, 1]", ErrInvalidConfig)
	}
	if m.Cache.MaxAgeDays < 0 {
		return fmt.Errorf("%w: cache.max_age_days must not be negative", ErrInvalidConfig)
	}

	switch c.Store.Engine {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store.Engine)
	}

	if !inUnit(c.Search.AcceptThreshold) {
		return fmt.Errorf("%w: search.accept_threshold must be within [0, 1]", ErrInvalidConfig)
	}

	return nil
}

// WeightSum returns the sum of the three matcher weights.
func (m MatcherConfig) WeightSum() float64 {
	return m.TitleWeight + m.ArtistWeight + m.AlbumWeight
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
