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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/rankit"
	"github.com/poiesic/rankit/catalog"
	"github.com/poiesic/rankit/config"
	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/scoring"
	"github.com/poiesic/rankit/search"
	"github.com/poiesic/rankit/source/files"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json)",
		Value:   formatText,
	}
	reportFlags := []cli.Flag{
		formatFlag,
		&cli.BoolFlag{
			Name:  "insights",
			Usage: "Print insights about the results",
		},
		&cli.BoolFlag{
			Name:  "recommend",
			Usage: "Print integration recommendations for the results",
		},
	}

	return &cli.App{
		Name:  "rankit",
		Usage: "Score and rank candidates for free-text queries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (in memory when empty)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL; enables semantic matching",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "searxng",
				Usage: "SearXNG instance URL; enables external search",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "rank",
				Usage:     "Rank candidates for a query",
				ArgsUsage: "QUERY...",
				Action:    rankCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (configured default when 0)",
					},
					&cli.StringFlag{
						Name:    "profile",
						Aliases: []string{"p"},
						Usage:   "Scoring profile (see 'rankit profiles')",
					},
					&cli.BoolFlag{
						Name:  "layers",
						Usage: "Also ask providers with each expansion layer",
					},
					&cli.StringSliceFlag{
						Name:  "path",
						Usage: "Also rank the files under `PATH` (repeatable)",
					},
				}, reportFlags...),
			},
			{
				Name:      "blockchain",
				Usage:     "Find blockchain repositories for a topic",
				ArgsUsage: "TOPIC...",
				Action:    blockchainCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "protocol",
						Usage: "Narrow the search to a protocol, e.g. ethereum",
					},
					&cli.StringFlag{
						Name:  "level",
						Usage: "Search enhancement level (basic, enhanced, quantum)",
						Value: search.LevelEnhanced,
					},
				}, reportFlags...),
			},
			{
				Name:      "integration",
				Usage:     "Find repositories offering an integration",
				ArgsUsage: "KIND [REQUIREMENT...]",
				Action:    integrationCommand,
				Flags:     reportFlags,
			},
			{
				Name:   "seed",
				Usage:  "Import a YAML catalog, or the built-in one, into the database",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "catalog",
						Usage: "Path to a YAML catalog file",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Usage: "Write the built-in catalog as YAML and exit",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Re-embed every stored candidate",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of candidates embedded per request (configured default when 0)",
					},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Show the metadata and scores of local files",
				ArgsUsage: "PATH...",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					formatFlag,
					&cli.IntFlag{
						Name:  "max-files",
						Usage: "Stop after this many files (0 for no limit)",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Summarize the stored catalog",
				Action: statusCommand,
				Flags:  []cli.Flag{formatFlag},
			},
			{
				Name:   "profiles",
				Usage:  "List scoring profiles",
				Action: profilesCommand,
			},
		},
	}
}

// setup loads the configuration, applies flag overrides and installs the logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = strings.ToLower(c.String("log-level"))
	}
	if c.IsSet("db") {
		cfg.Database.Path = c.String("db")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("searxng") {
		cfg.SearXNG.URL = c.String("searxng")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// openEngine opens the engine and writes the metrics textfile when the
// command finishes.
func openEngine(c *cli.Context, cfg *config.Config) (*rankit.Engine, func(), error) {
	engine, err := rankit.NewEngine(c.Context, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, func() {
		if err := engine.WriteMetrics(); err != nil {
			slog.Error("error writing metrics", "err", err)
		}
		if err := engine.Close(); err != nil {
			slog.Error("error closing engine", "err", err)
		}
	}, nil
}

func rankCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("a query is required")
	}

	cfg := loadedConfig(c)
	if c.IsSet("profile") {
		if _, err := scoring.ProfileByName(c.String("profile")); err != nil {
			return err
		}
		cfg.Ranking.Profile = c.String("profile")
	}
	if c.Bool("layers") {
		cfg.Search.Layers = true
	}
	cfg.Files.Paths = append(cfg.Files.Paths, c.StringSlice("path")...)

	return runQuery(c, cfg, core.Query{Text: text, Limit: c.Int("limit")}, nil)
}

func blockchainCommand(c *cli.Context) error {
	topic := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("a topic is required")
	}
	switch c.String("level") {
	case search.LevelBasic, search.LevelEnhanced, search.LevelQuantum:
	default:
		return fmt.Errorf("invalid level %q: must be one of basic, enhanced, quantum", c.String("level"))
	}

	query := search.BlockchainQuery(topic, c.String("protocol"), c.String("level"))
	return runQuery(c, loadedConfig(c), query, nil)
}

func integrationCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("an integration kind is required")
	}
	query := search.IntegrationQuery(c.Args().First(), c.Args().Tail()...)
	return runQuery(c, loadedConfig(c), query, func(results []*core.ScoredCandidate) []*core.ScoredCandidate {
		return search.FilterBySynergy(results, search.IntegrationMinSynergy, search.IntegrationFallback)
	})
}

func runQuery(c *cli.Context, cfg *config.Config, query core.Query, post func([]*core.ScoredCandidate) []*core.ScoredCandidate) error {
	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}

	engine, done, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer done()

	response, err := engine.Rank(c.Context, query)
	if err != nil {
		return err
	}

	results := response.Results()
	if post != nil {
		results = post(results)
	}
	return writeRanking(c.App.Writer, format, rankingOutput{
		query:     query.Text,
		runID:     response.RunID,
		results:   results,
		insights:  c.Bool("insights"),
		recommend: c.Bool("recommend"),
	})
}

func seedCommand(c *cli.Context) error {
	if c.Bool("dump") {
		return catalog.Write(c.App.Writer, catalog.Default())
	}

	candidates := catalog.Default()
	if path := c.String("catalog"); path != "" {
		var err error
		candidates, err = catalog.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	cfg := loadedConfig(c)
	cfg.Catalog.Seed = false
	engine, done, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer done()

	result, err := engine.Seed(c.Context, candidates...)
	if result != nil {
		fmt.Fprintf(c.App.Writer, "Stored %d candidates, embedded %d\n", result.Stored, result.Embedded)
	}
	return err
}

func indexCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if c.Int("batch-size") > 0 {
		cfg.Indexing.BatchSize = c.Int("batch-size")
	}

	engine, done, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer done()

	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.Model)
	result, err := engine.Reindex(c.Context, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Embedded %d candidates (%d already done)\n", result.Embedded, result.Skipped)
	return nil
}

func statusCommand(c *cli.Context) error {
	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}

	engine, done, err := openEngine(c, loadedConfig(c))
	if err != nil {
		return err
	}
	defer done()

	status, err := engine.Status(c.Context)
	if err != nil {
		return err
	}
	return writeStatus(c.App.Writer, format, status)
}

func analyzeCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one path is required")
	}
	format, err := parseFormat(c.String("format"))
	if err != nil {
		return err
	}

	analyzer, err := files.NewAnalyzer(files.WithMaxFiles(c.Int("max-files")))
	if err != nil {
		return err
	}
	analyzed, err := analyzer.Walk(c.Context, c.Args().Slice()...)
	if err != nil {
		return err
	}
	return writeAnalysis(c.App.Writer, format, analyzed)
}

func profilesCommand(c *cli.Context) error {
	for _, name := range scoring.ProfileNames() {
		profile, err := scoring.ProfileByName(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%-12s high=%.2f low=%.2f  %s\n",
			profile.Name, profile.HighThreshold, profile.LowThreshold, profile.Description)
	}
	return nil
}
