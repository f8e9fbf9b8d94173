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


package scoring

import "errors"

var (
	// ErrInvalidWeights is returned when weights are negative, not finite, or do not sum to (0,1].
	ErrInvalidWeights = errors.New("invalid weights")

	// ErrUnknownProfile is returned when a profile name is not registered.
	ErrUnknownProfile = errors.New("unknown scoring profile")
)
