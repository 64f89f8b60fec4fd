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


package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/config"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
)

// Engine drives enrichment tasks: it resolves each task, provisions its
// destination, selects the rows, and dispatches (document, model) pairs
// to a worker pool. Each pair succeeds or fails on its own.
type Engine struct {
	store          storage.Store
	registry       *ai.Registry
	cfg            *config.Config
	pool           *ants.Pool
	logger         *slog.Logger
	baseDelay      time.Duration
	progressWriter io.Writer
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent dispatch.
// Default is the config's workers setting.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithBaseDelay sets the base retry delay. Default is one second; tests
// shrink it.
func WithBaseDelay(delay time.Duration) Option {
	return func(e *Engine) error {
		if delay > 0 {
			e.baseDelay = delay
		}
		return nil
	}
}

// WithProgress enables progress reporting to the given writer, typically
// os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(e *Engine) error {
		e.progressWriter = w
		return nil
	}
}

// NewEngine creates an enrichment engine.
func NewEngine(store storage.Store, registry *ai.Registry, cfg *config.Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:     store,
		registry:  registry,
		cfg:       cfg,
		pool:      pool,
		logger:    slog.Default().With("component", "enrich"),
		baseDelay: time.Second,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.pool.Release()
			return nil, err
		}
	}
	return e, nil
}

// Release frees the worker pool. The engine cannot be used afterwards.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Summary aggregates the outcome of a run across all requested tasks.
type Summary struct {
	// Processed counts pairs that produced a validated, persisted result.
	Processed int

	// Skipped counts pairs passed over because the destination was
	// already enriched.
	Skipped int

	// Failed counts pairs whose retry budget ran out. Each one has a
	// failed row in the audit trail.
	Failed int
}

// Run executes the named tasks in order. With no names it runs every task
// in the config, sorted by name. Pair failures are counted, not fatal; a
// task where every pair fails returns a BatchError.
func (e *Engine) Run(ctx context.Context, taskNames ...string) (*Summary, error) {
	if len(taskNames) == 0 {
		for name := range e.cfg.Enrichments {
			taskNames = append(taskNames, name)
		}
		sort.Strings(taskNames)
	}

	// Resolve everything before touching storage so a typo in the last
	// task name does not waste work on the first.
	tasks := make([]*Task, 0, len(taskNames))
	for _, name := range taskNames {
		task, err := ResolveTask(e.cfg, name)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	summary := &Summary{}
	for _, task := range tasks {
		if err := e.runTask(ctx, task, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (e *Engine) runTask(ctx context.Context, task *Task, summary *Summary) error {
	logger := e.logger.With("task", task.Name)

	if err := e.store.Provision(ctx, task.Target); err != nil {
		return fmt.Errorf("provision %s: %w", task.Name, err)
	}

	keys, err := e.store.SelectKeys(ctx, task.Query)
	if err != nil {
		return fmt.Errorf("select keys for %s: %w", task.Name, err)
	}
	if task.Limit > 0 && len(keys) > task.Limit {
		keys = keys[:task.Limit]
	}
	if len(keys) == 0 {
		logger.Info("no rows selected")
		return nil
	}

	pairs, skipped, err := e.collectPairs(ctx, task, keys)
	if err != nil {
		return err
	}
	summary.Skipped += skipped
	logger.Info("task resolved",
		"mode", task.Target.Mode.String(),
		"keys", len(keys),
		"pairs", len(pairs),
		"skipped", skipped)
	if len(pairs) == 0 {
		return nil
	}

	var tracker *ProgressTracker
	if e.progressWriter != nil {
		interval := len(pairs) / 20
		if interval < 1 {
			interval = 1
		}
		tracker = NewProgressTracker(e.progressWriter, len(pairs), interval)
		tracker.Start()
	}

	processed, failed := e.dispatch(ctx, task, pairs, tracker)
	summary.Processed += processed
	summary.Failed += failed

	if tracker != nil {
		tracker.Finish()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if processed == 0 && failed > 0 {
		return &BatchError{Task: task.Name, Failed: failed}
	}
	return nil
}

// collectPairs expands selected keys into (key, model) work units. In
// append mode, pairs whose destination is already enriched are skipped
// before any provider traffic.
func (e *Engine) collectPairs(ctx context.Context, task *Task, keys []core.Key) ([]pair, int, error) {
	var pairs []pair
	skipped := 0
	for _, key := range keys {
		for _, model := range task.Models {
			if task.Target.WriteMode == storage.WriteAppend {
				done, err := e.store.Enriched(ctx, task.Target, task.Name, key, model)
				if err != nil {
					return nil, 0, fmt.Errorf("enriched check for %s: %w", task.Name, err)
				}
				if done {
					skipped++
					continue
				}
			}
			pairs = append(pairs, pair{key: key, model: model})
		}
	}
	return pairs, skipped, nil
}
