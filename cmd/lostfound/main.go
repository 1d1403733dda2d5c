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
	"strings"

	"github.com/poiesic/lostfound"
	"github.com/poiesic/lostfound/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lostfound",
		Usage: "Lost and found similarity search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML, TOML or JSON config file",
				EnvVars: []string{"LOSTFOUND_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override the configured log level (debug, info, warn, error)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			serveCommand(),
			searchCommand(),
			importCommand(),
			reembedCommand(),
			useraddCommand(),
		},
	}
}

// setup loads the configuration and installs the process logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = strings.ToLower(lvl)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", lvl)
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}

// openDatabase opens the configured storage backend.
func openDatabase(ctx context.Context, cfg *config.Config) (*lostfound.Database, error) {
	opts := []lostfound.DatabaseOption{
		lostfound.WithAIConfig(cfg.AIConfig()),
		lostfound.WithLogger(slog.Default()),
	}

	var (
		db  *lostfound.Database
		err error
	)
	switch cfg.Storage.Driver {
	case "postgres":
		db, err = lostfound.NewPostgresDatabase(ctx, cfg.Storage.DSN, opts...)
	default:
		db, err = lostfound.NewDatabase(cfg.Storage.Path, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
