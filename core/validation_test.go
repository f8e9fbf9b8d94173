package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate *Candidate
		wantErr   error
	}{
		{
			name: "valid candidate",
			candidate: &Candidate{
				Id:          "ethereum/go-ethereum",
				DisplayName: "go-ethereum",
				Features:    map[string]float64{FeatureBaseQuality: 0.95, FeatureCoherence: 0.92},
			},
			wantErr: nil,
		},
		{
			name: "valid candidate without features",
			candidate: &Candidate{
				Id:          "https://example.com",
				DisplayName: "Example",
			},
			wantErr: nil,
		},
		{
			name: "boundary feature values",
			candidate: &Candidate{
				Id:          "x",
				DisplayName: "x",
				Features:    map[string]float64{"low": 0, "high": 1},
			},
			wantErr: nil,
		},
		{
			name:      "nil candidate",
			candidate: nil,
			wantErr:   ErrInvalidCandidate,
		},
		{
			name:      "blank id",
			candidate: &Candidate{Id: "  ", DisplayName: "x"},
			wantErr:   ErrEmptyID,
		},
		{
			name:      "empty display name",
			candidate: &Candidate{Id: "x"},
			wantErr:   ErrEmptyDisplayName,
		},
		{
			name: "feature above one",
			candidate: &Candidate{
				Id:          "x",
				DisplayName: "x",
				Features:    map[string]float64{FeatureCoherence: 1.2},
			},
			wantErr: ErrFeatureOutOfRange,
		},
		{
			name: "negative feature",
			candidate: &Candidate{
				Id:          "x",
				DisplayName: "x",
				Features:    map[string]float64{FeatureCoherence: -0.1},
			},
			wantErr: ErrFeatureOutOfRange,
		},
		{
			name: "NaN feature",
			candidate: &Candidate{
				Id:          "x",
				DisplayName: "x",
				Features:    map[string]float64{FeatureCoherence: math.NaN()},
			},
			wantErr: ErrFeatureOutOfRange,
		},
		{
			name: "unnamed feature",
			candidate: &Candidate{
				Id:          "x",
				DisplayName: "x",
				Features:    map[string]float64{"": 0.5},
			},
			wantErr: ErrEmptyFeatureName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidate(tt.candidate)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCandidate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCandidate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidCandidate) {
				t.Errorf("ValidateCandidate() error should wrap ErrInvalidCandidate, got %v", err)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: -1, want: 0},
		{in: 0, want: 0},
		{in: 0.42, want: 0.42},
		{in: 1, want: 1},
		{in: 3.5, want: 1},
		{in: math.NaN(), want: 0},
		{in: math.Inf(1), want: 1},
		{in: math.Inf(-1), want: 0},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsUnitInterval(t *testing.T) {
	if !IsUnitInterval(0.5) {
		t.Errorf("IsUnitInterval(0.5) = false, want true")
	}
	if IsUnitInterval(math.Inf(1)) {
		t.Errorf("IsUnitInterval(+Inf) = true, want false")
	}
	if IsUnitInterval(1.0000001) {
		t.Errorf("IsUnitInterval(1.0000001) = true, want false")
	}
}
