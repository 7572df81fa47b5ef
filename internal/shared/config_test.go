package shared

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./tunematch.db" {
			t.Errorf("expected database path ./tunematch.db, got %s", config.Database.Path)
		}

		if config.Matcher.TitleWeight != 0.5 || config.Matcher.ArtistWeight != 0.3 || config.Matcher.AlbumWeight != 0.2 {
			t.Errorf("unexpected default weights: %+v", config.Matcher)
		}

		if math.Abs(config.Matcher.WeightSum()-1.0) > 1e-9 {
			t.Errorf("expected default weights to sum to 1.0, got %v", config.Matcher.WeightSum())
		}

		th := config.Matcher.Thresholds
		if th.High != 0.9 || th.Medium != 0.7 || th.Low != 0.5 {
			t.Errorf("unexpected default thresholds: %+v", th)
		}

		if config.Matcher.Cache.MinConfidence != 0.7 || config.Matcher.Cache.MaxAgeDays != 30 {
			t.Errorf("unexpected cache policy: %+v", config.Matcher.Cache)
		}

		if len(config.Normalization.FillerWords) != 12 {
			t.Errorf("expected 12 filler words, got %d", len(config.Normalization.FillerWords))
		}

		if config.Normalization.Substitutions["&"] != "and" {
			t.Errorf("expected & -> and substitution, got %q", config.Normalization.Substitutions["&"])
		}

		if config.Store.Engine != "sqlite" || !config.Store.History {
			t.Errorf("unexpected store config: %+v", config.Store)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[store]
engine = "memory"

[matcher]
title_weight = 0.6
artist_weight = 0.3
album_weight = 0.1

[matcher.thresholds]
medium = 0.75

[normalization.substitutions]
"&" = "n"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Store.Engine != "memory" {
			t.Errorf("expected memory store, got %s", config.Store.Engine)
		}

		if config.Matcher.TitleWeight != 0.6 || config.Matcher.AlbumWeight != 0.1 {
			t.Errorf("weights not overridden: %+v", config.Matcher)
		}

		if config.Matcher.Thresholds.Medium != 0.75 || config.Matcher.Thresholds.High != 0.9 {
			t.Errorf("expected partial threshold override, got %+v", config.Matcher.Thresholds)
		}

		if len(config.Normalization.Substitutions) != 1 || config.Normalization.Substitutions["&"] != "n" {
			t.Errorf("expected substitutions table to be replaced, got %v", config.Normalization.Substitutions)
		}

		if len(config.Normalization.FillerWords) != 12 {
			t.Errorf("expected default filler words to survive, got %d", len(config.Normalization.FillerWords))
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ParseConfig malformed", func(t *testing.T) {
		if _, err := ParseConfig([]byte("[matcher\ntitle_weight = ")); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tc := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Matcher.ArtistWeight = -0.1 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Matcher.Thresholds.High = 1.2 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "low above medium",
			mutate:  func(c *Config) { c.Matcher.Thresholds.Low = 0.8 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative max age",
			mutate:  func(c *Config) { c.Matcher.Cache.MaxAgeDays = -1 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Store.Engine = "mongo" },
			wantErr: ErrUnknownStore,
		},
		{
			name:   "weights not summing to one are allowed",
			mutate: func(c *Config) { c.Matcher.TitleWeight = 0.9 },
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
