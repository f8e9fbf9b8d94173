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


// Package ai provides the embedding abstraction used for semantic ranking.
//
// Candidate descriptions and query text are embedded into vectors so that
// stored candidates can be compared by cosine similarity. The core ranking
// path never requires an embedder; when one is configured it contributes
// the "semantic" feature.
//
// # Implementation Packages
//
//   - ai/openai: production embedder for OpenAI-compatible APIs
//   - ai/mock: deterministic test double
//
// Public constructors such as openai.NewEmbedder return the ai.Embedder
// interface. mock.NewMockEmbedder returns the concrete type so tests can
// inject behavior and inspect call counts.
//
//	embedder, err := openai.NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost("http://localhost:11434")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "static analysis for solidity")
package ai
