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
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/schema"
	"github.com/poiesic/enrichit/storage"
)

// pair is one unit of work: one document key against one model.
type pair struct {
	key   core.Key
	model string
}

// dispatch fans pairs out over the worker pool and waits for all of them.
// Pair outcomes are isolated: one pair's failure never touches another's.
func (e *Engine) dispatch(ctx context.Context, task *Task, pairs []pair, tracker *ProgressTracker) (processed, failed int) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, p := range pairs {
		if ctx.Err() != nil {
			break
		}
		p := p
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			ok := e.processPair(ctx, task, p)
			mu.Lock()
			if ok {
				processed++
			} else {
				failed++
			}
			mu.Unlock()
			if tracker != nil {
				tracker.Increment(1)
			}
		})
		if err != nil {
			wg.Done()
			e.logger.Error("pool submit failed", "error", err)
			mu.Lock()
			failed++
			mu.Unlock()
		}
	}

	wg.Wait()
	return processed, failed
}

// processPair runs one (document, model) exchange end to end: fetch
// inputs, render the prompt, call the provider with retries, validate,
// and persist. Returns true on a persisted success.
func (e *Engine) processPair(ctx context.Context, task *Task, p pair) bool {
	logger := e.logger.With("task", task.Name, "key", string(p.key), "model", p.model)

	generator, err := e.registry.Generator(p.model)
	if err != nil {
		logger.Error("no generator for model", "error", err)
		return false
	}

	inputs, err := e.store.FetchInputs(ctx, p.key, task.KeyColumn, task.InputRefs)
	if err != nil {
		logger.Error("input fetch failed", "error", err)
		return false
	}

	structured, isStructured := generator.(ai.StructuredGenerator)

	prompt := renderPrompt(task, inputs)
	req := ai.Request{
		Model:        p.model,
		SystemPrompt: task.SystemPrompt,
		Prompt:       prompt,
	}
	if override, ok := e.cfg.Models[p.model]; ok {
		req.Temperature = override.Temperature
		req.MaxTokens = override.MaxTokens
	}
	if !isStructured {
		// Schema enforcement falls back to prompt instructions. JSON
		// mode only helps when the answer is a JSON object.
		req.Prompt = prompt + "\n\n" + schemaInstructions(task.Record)
		req.JSONMode = task.Record.Single() == nil
	}

	attempts := task.MaxRetries + 1
	var (
		raw    string
		values map[string]any
	)
	err = RetryWithBackoff(ctx, func() error {
		var genErr error
		if isStructured {
			raw, genErr = structured.GenerateStructured(ctx, req, task.Record)
		} else {
			raw, genErr = generator.Generate(ctx, req)
		}
		if genErr != nil {
			if ai.IsTransient(genErr) {
				return genErr
			}
			return Permanent(genErr)
		}

		values, genErr = parseResponse(task.Record, raw)
		if genErr != nil {
			// Malformed or out-of-schema output is worth re-asking;
			// anything else is not going to improve.
			var parseErr *ParseError
			var validationErr *schema.ValidationError
			if errors.As(genErr, &parseErr) || errors.As(genErr, &validationErr) {
				return genErr
			}
			return Permanent(genErr)
		}
		return nil
	}, attempts, e.baseDelay)

	attempt := storage.Attempt{
		EnrichmentID: uuid.NewString(),
		Key:          p.key,
		Task:         task.Name,
		Model:        p.model,
		Prompt:       req.Prompt,
		RawResponse:  raw,
	}
	if err != nil {
		logger.Warn("pair failed", "error", err)
		if ctx.Err() != nil {
			return false
		}
		// Record the failure; the destination stays untouched.
		if perr := e.store.Persist(ctx, task.Target, attempt); perr != nil {
			logger.Error("failed attempt not audited", "error", perr)
		}
		return false
	}

	attempt.Values = values
	attempt.Success = true
	if err := e.store.Persist(ctx, task.Target, attempt); err != nil {
		logger.Error("persist failed", "error", err)
		return false
	}
	logger.Debug("pair enriched")
	return true
}
