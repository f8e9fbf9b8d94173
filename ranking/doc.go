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


// Package ranking selects the top candidates for a query.
//
// The Ranker scores every candidate, then filters with two thresholds:
//
//	INITIAL -> FILTERED(high) -> [fewer than limit] -> FILTERED(low) -> [none] -> UNFILTERED -> TRUNCATED
//
// The low pass always re-filters the full candidate set. When candidates exist
// the Ranker never returns an empty list. Results are ordered by score
// descending with ties broken by candidate id ascending, so ranking is a pure
// function of the candidate set and the query.
package ranking
