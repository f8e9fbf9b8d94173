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


// Package search gathers candidates from several providers, merges them and
// ranks the result.
//
// A search fans out over every (layer, provider) pair on a worker pool. A
// layer is a query expansion: it changes what providers are asked, never the
// text candidates are scored against. Provider results are merged in a fixed
// slot order and de-duplicated by candidate id, so the outcome does not depend
// on which provider finished first. A provider that fails or times out
// contributes nothing; it never fails the search.
//
//	searcher, err := search.NewSearcher(ranker, []search.Provider{
//	    search.NewCatalogProvider(repo),
//	    sourceProvider,
//	}, search.WithLayers(search.DefaultLayers()...))
//	if err != nil {
//	    return err
//	}
//	defer searcher.Release()
//
//	response, err := searcher.Search(ctx, core.Query{Text: "solidity security", Limit: 5})
package search
