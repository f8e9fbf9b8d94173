// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads rankit settings.
//
// Settings are read, lowest precedence first, from built-in defaults, an
// optional YAML file and RANKIT_ environment variables. Environment names map
// to keys by splitting on the first underscore after the prefix:
//
//	RANKIT_SEARXNG_URL            -> searxng.url
//	RANKIT_RANKING_HIGH_THRESHOLD -> ranking.high_threshold
//	RANKIT_EMBEDDING_HOST         -> embedding.host
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/scoring"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "RANKIT_"

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete rankit configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Ranking   RankingConfig   `koanf:"ranking"`
	Search    SearchConfig    `koanf:"search"`
	SearXNG   SearXNGConfig   `koanf:"searxng"`
	Files     FilesConfig     `koanf:"files"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Indexing  IndexingConfig  `koanf:"indexing"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
}

// DatabaseConfig locates the candidate store. An empty path keeps it in memory.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// CatalogConfig controls how an empty store is populated.
type CatalogConfig struct {
	Path string `koanf:"path"` // YAML catalog file; empty uses the built-in catalog
	Seed bool   `koanf:"seed"` // seed an empty store on open
}

type RankingConfig struct {
	Profile       string   `koanf:"profile"`
	Limit         int      `koanf:"limit"`
	HighThreshold *float64 `koanf:"high_threshold"` // overrides the profile when set
	LowThreshold  *float64 `koanf:"low_threshold"`
}

type SearchConfig struct {
	Layers        bool    `koanf:"layers"` // fan out over the expansion layers
	PoolSize      int     `koanf:"pool_size"`
	MinSimilarity float64 `koanf:"min_similarity"`
	SemanticLimit int     `koanf:"semantic_limit"`
}

// SearXNGConfig configures the external search backend. An empty URL disables it.
type SearXNGConfig struct {
	URL        string        `koanf:"url"`
	Timeout    time.Duration `koanf:"timeout"`
	RateLimit  float64       `koanf:"rate_limit"` // requests per second
	Categories string        `koanf:"categories"`
	Language   string        `koanf:"language"`
}

// FilesConfig adds local files under Paths as candidates to every search.
type FilesConfig struct {
	Paths    []string `koanf:"paths"`
	MaxFiles int      `koanf:"max_files"` // 0 means no limit
}

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint.
// An empty host disables embeddings.
type EmbeddingConfig struct {
	Host  string `koanf:"host"`
	Model string `koanf:"model"`
	Token string `koanf:"token"`
}

type IndexingConfig struct {
	BatchSize   int           `koanf:"batch_size"`
	MaxAttempts int           `koanf:"max_attempts"`
	RetryDelay  time.Duration `koanf:"retry_delay"`
	PoolSize    int           `koanf:"pool_size"`
}

// MetricsConfig names a file that receives the metrics in text format after
// each command. Empty disables it.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Seed: true},
		Ranking: RankingConfig{
			Profile: scoring.ProfileDefault,
			Limit:   5,
		},
		Search: SearchConfig{
			MinSimilarity: 0.3,
			SemanticLimit: 50,
		},
		SearXNG: SearXNGConfig{
			Timeout:    30 * time.Second,
			RateLimit:  1,
			Categories: "general",
			Language:   "en",
		},
		Embedding: EmbeddingConfig{
			Model: "embeddinggemma",
		},
		Indexing: IndexingConfig{
			BatchSize:   32,
			MaxAttempts: 3,
			RetryDelay:  time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the configuration. An empty path skips the file; a path that
// does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps RANKIT_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// applyDefaults restores defaults that an explicit zero would break.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Ranking.Profile == "" {
		cfg.Ranking.Profile = def.Ranking.Profile
	}
	if cfg.SearXNG.Timeout <= 0 {
		cfg.SearXNG.Timeout = def.SearXNG.Timeout
	}
	if cfg.Indexing.BatchSize <= 0 {
		cfg.Indexing.BatchSize = def.Indexing.BatchSize
	}
	if cfg.Indexing.MaxAttempts <= 0 {
		cfg.Indexing.MaxAttempts = def.Indexing.MaxAttempts
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// Validate checks the settings that cannot be corrected silently.
func (c *Config) Validate() error {
	var errs []error

	if _, err := scoring.ProfileByName(c.Ranking.Profile); err != nil {
		errs = append(errs, err)
	}
	for name, v := range map[string]*float64{
		"ranking.high_threshold": c.Ranking.HighThreshold,
		"ranking.low_threshold":  c.Ranking.LowThreshold,
	} {
		if v != nil && !core.IsUnitInterval(*v) {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, *v))
		}
	}
	if !core.IsUnitInterval(c.Search.MinSimilarity) {
		errs = append(errs, fmt.Errorf("search.min_similarity must be within [0,1], got %v", c.Search.MinSimilarity))
	}
	if c.SearXNG.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("searxng.rate_limit cannot be negative, got %v", c.SearXNG.RateLimit))
	}
	if c.Files.MaxFiles < 0 {
		errs = append(errs, fmt.Errorf("files.max_files cannot be negative, got %d", c.Files.MaxFiles))
	}
	if c.Embedding.Host != "" && c.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding.model is required when embedding.host is set"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
