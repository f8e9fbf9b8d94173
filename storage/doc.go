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


// Package storage provides the storage abstraction layer for rankit.
//
// This package defines repository interfaces that decouple the candidate corpus
// from ranking logic. Ranking never writes: it reads a Snapshot of candidates,
// scores copies and discards them.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the storage interfaces:
//
//	repo, err := badger.NewCandidateRepository(backend)  // returns storage.CandidateRepository
//
// Internal helpers may return concrete types since they're only used within
// the implementation package.
//
// # Architecture
//
//   - Repository: operations shared by all repositories (similarity search, transactions)
//   - CandidateRepository: candidate records and the tag index
//   - CheckpointRepository: progress markers for long-running catalog jobs
//
// # Usage
//
// Use in tests, or as a process-local corpus, with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	defer repo.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
