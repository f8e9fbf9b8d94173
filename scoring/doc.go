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


// Package scoring combines extracted features into a single relevance score.
//
// A Scorer holds a fixed set of Weights and computes their weighted sum over a
// feature map, clipped to [0,1]. Weights are configuration, not learned: the
// default profile is
//
//	0.4*tag_overlap + 0.3*base_quality + 0.2*coherence + 0.1*group_match
//
// Named profiles bundle weights with the keyword groups and ranking thresholds
// suited to a kind of candidate (catalog repositories, external search hits).
package scoring
