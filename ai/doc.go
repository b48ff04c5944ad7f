// Copyright 2026 Scopeworks
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


// Package ai defines the embedding service abstraction used by the
// ingestion pipeline.
//
// The core pipeline depends only on the Embedder interface; concrete
// implementations live in sub-packages:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: test doubles with deterministic vectors and behavior
//     injection via function fields
//
// Public constructors (openai.NewEmbedder) return the interface type to
// enforce abstraction; mock constructors return concrete types so tests
// can inject behavior and make assertions.
package ai
