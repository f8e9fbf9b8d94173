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


package core

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ValidateCandidate validates a Candidate according to domain rules.
//
// Validation rules:
//   - Id must not be blank
//   - DisplayName must not be blank
//   - Every feature must have a name and a finite value in [0,1]
//
// NOT validated (populated by processors or optional):
//   - Vector (can be empty until the indexing pipeline runs)
//   - Tags and Synergy (may be empty)
func ValidateCandidate(candidate *Candidate) error {
	if candidate == nil {
		return fmt.Errorf("%w: candidate is nil", ErrInvalidCandidate)
	}

	if strings.TrimSpace(candidate.Id) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyID)
	}

	if strings.TrimSpace(candidate.DisplayName) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyDisplayName)
	}

	// Sorted so the reported feature is stable
	names := make([]string, 0, len(candidate.Features))
	for name := range candidate.Features {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := ValidateFeature(name, candidate.Features[name]); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCandidate, err)
		}
	}

	return nil
}

// ValidateFeature checks a single named feature value.
func ValidateFeature(name string, value float64) error {
	if name == "" {
		return ErrEmptyFeatureName
	}
	if !IsUnitInterval(value) {
		return fmt.Errorf("%w: %s=%v", ErrFeatureOutOfRange, name, value)
	}
	return nil
}

// IsUnitInterval reports whether v is finite and within [0,1].
func IsUnitInterval(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// Clamp01 clips v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
