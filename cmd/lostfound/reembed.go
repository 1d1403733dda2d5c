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
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/lostfound/reembed"
	"github.com/urfave/cli/v2"
)

func reembedCommand() *cli.Command {
	defaults := reembed.DefaultConfig()
	return &cli.Command{
		Name:   "reembed",
		Usage:  "Recompute stored item embeddings",
		Action: reembedAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Value: defaults.BatchSize,
				Usage: "Number of items to process per batch",
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Value: defaults.ReportInterval,
				Usage: "Report progress every N items",
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Value: defaults.MaxRetries,
				Usage: "Maximum attempts per embedding call",
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Value: defaults.RetryDelay,
				Usage: "Base delay between retries",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: defaults.Workers,
				Usage: "Concurrent image embedding calls",
			},
			&cli.BoolFlag{
				Name:  "text-only",
				Usage: "Only recompute title embeddings",
			},
			&cli.BoolFlag{
				Name:  "image-only",
				Usage: "Only recompute image embeddings",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Recompute embeddings that already exist",
			},
			&cli.BoolFlag{
				Name:  "normalize",
				Usage: "Scale vectors to unit length before storing",
			},
			&cli.BoolFlag{
				Name:  "restart",
				Usage: "Ignore any saved checkpoint and start from the first item",
			},
		},
	}
}

func reembedConfigFromFlags(c *cli.Context) (*reembed.Config, error) {
	cfg := reembed.DefaultConfig()
	cfg.BatchSize = c.Int("batch-size")
	cfg.ReportInterval = c.Int("report-interval")
	cfg.MaxRetries = c.Int("max-retries")
	cfg.RetryDelay = c.Duration("retry-delay")
	cfg.Workers = c.Int("workers")
	cfg.Force = c.Bool("force")
	cfg.Normalize = c.Bool("normalize")

	if c.Bool("text-only") && c.Bool("image-only") {
		return nil, errors.New("text-only and image-only are mutually exclusive")
	}
	if c.Bool("text-only") {
		cfg.Image = false
	}
	if c.Bool("image-only") {
		cfg.Text = false
	}

	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be greater than 0")
	}
	return cfg, nil
}

func reembedAction(c *cli.Context) error {
	cfg, err := reembedConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c.Context, loadedConfig(c))
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("restart") {
		if err := db.CheckpointRepository().DeleteCheckpoint(c.Context, reembed.CheckpointName); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	reembedder, err := db.NewReembedder(cfg, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}
	defer reembedder.Release()

	stats, err := reembedder.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Text: %d, image: %d, skipped: %d\n", stats.TextEmbedded, stats.ImageEmbedded, stats.Skipped)
	return nil
}
