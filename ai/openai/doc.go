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


// Package openai implements ai.Generator using OpenAI-compatible APIs.
//
// This package uses the langchaingo library to communicate with OpenAI or
// OpenAI-compatible services (such as Ollama, LocalAI, or vLLM). The API
// offers no native schema enforcement, so the generator implements only
// the base capability: callers append schema instructions to the prompt
// and set JSONMode to constrain output to JSON where the service supports
// it. Responses that are almost JSON get one repair pass before being
// handed back.
//
// # Usage
//
//	config := ai.NewModelConfig("gpt-4o-mini",
//	    ai.WithBaseURL("http://localhost:11434/v1"),
//	)
//	generator, err := openai.NewGenerator(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := generator.Generate(ctx, ai.Request{Prompt: "...", JSONMode: true})
package openai
