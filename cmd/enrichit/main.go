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
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/enrichit"
	"github.com/poiesic/enrichit/config"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/enrich"
	"github.com/poiesic/enrichit/storage"
	sqlitestore "github.com/poiesic/enrichit/storage/sqlite"
)

func main() {
	app := &cli.App{
		Name:  "enrichit",
		Usage: "Schema-driven enrichment for SQLite documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the enrichment config file",
				Value:   "enrichit.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "enrich",
				Usage:     "Run enrichment tasks",
				ArgsUsage: "[task ...]",
				Action:    enrichCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Override the configured worker count",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Suppress progress output",
					},
				},
			},
			{
				Name:   "tasks",
				Usage:  "List configured enrichment tasks",
				Action: tasksCommand,
			},
			{
				Name:   "history",
				Usage:  "Show the enrichment audit trail",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "key",
						Usage: "Filter by document key",
					},
					&cli.StringFlag{
						Name:  "task",
						Usage: "Filter by task name",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Include raw provider responses",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func enrichCommand(c *cli.Context) error {
	ctx := context.Background()

	opts := []enrichit.RunnerOption{}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, enrichit.WithWorkers(workers))
	}
	if !c.Bool("quiet") {
		opts = append(opts, enrichit.WithProgress(os.Stderr))
	}

	runner, err := enrichit.Open(c.String("config"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	defer runner.Close()

	cfg := runner.Config()
	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DatabasePath())
	fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Workers)
	fmt.Fprintln(os.Stderr)

	summary, err := runner.Run(ctx, c.Args().Slice()...)
	if summary != nil {
		fmt.Fprintf(os.Stderr, "Processed: %d  Skipped: %d  Failed: %d\n",
			summary.Processed, summary.Skipped, summary.Failed)
	}
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}
	return nil
}

func tasksCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	names := make([]string, 0, len(cfg.Enrichments))
	for name := range cfg.Enrichments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		task, err := enrich.ResolveTask(cfg, name)
		if err != nil {
			fmt.Printf("%-20s INVALID: %v\n", name, err)
			continue
		}
		fmt.Printf("%-20s %-15s -> %s (%d fields, models: %s)\n",
			name, task.Target.Mode, task.Target.Table,
			len(task.Target.Columns), strings.Join(task.Models, ", "))
	}
	return nil
}

func historyCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := sqlitestore.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	entries, err := store.History(ctx, storage.HistoryFilter{
		Key:   core.Key(c.String("key")),
		Task:  c.String("task"),
		Limit: c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries found.")
		return nil
	}

	for _, entry := range entries {
		status := "ok"
		if !entry.Success {
			status = "FAILED"
		}
		fmt.Printf("%s  %-6s  %-20s  %-20s  %s  %s\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			status, entry.Task, entry.Model, entry.Key, entry.EnrichmentID)
		if c.Bool("raw") {
			fmt.Printf("    %s\n", strings.TrimSpace(entry.RawResponse))
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
