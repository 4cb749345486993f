package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
)

// ScalerParams are the fitted per-feature standardization parameters, as exported from
// the training run.
type ScalerParams struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// Scaler applies a fitted affine standardization. It is immutable after construction and
// safe for concurrent use.
type Scaler struct {
	names []string
	mean  []float64
	scale []float64
}

func NewScaler(p ScalerParams) (*Scaler, error) {
	if len(p.Mean) == 0 {
		return nil, fmt.Errorf("scaler has no features")
	}
	if len(p.Mean) != len(p.Scale) {
		return nil, fmt.Errorf("scaler mean has %d values but scale has %d", len(p.Mean), len(p.Scale))
	}
	if len(p.FeatureNames) != 0 && len(p.FeatureNames) != len(p.Mean) {
		return nil, fmt.Errorf("scaler names %d features but has %d parameters", len(p.FeatureNames), len(p.Mean))
	}
	return &Scaler{
		names: append([]string(nil), p.FeatureNames...),
		mean:  append([]float64(nil), p.Mean...),
		scale: append([]float64(nil), p.Scale...),
	}, nil
}

// LoadScaler reads and schema-checks a scaler artifact.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler: %w", err)
	}
	if err := validateArtifact(scalerSchema, data); err != nil {
		return nil, fmt.Errorf("scaler %s: %w", path, err)
	}
	var p ScalerParams
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse scaler: %w", err)
	}
	return NewScaler(p)
}

func (s *Scaler) Dim() int { return len(s.mean) }

// FeatureNames returns the training-time feature order, or nil if the artifact did not
// record one.
func (s *Scaler) FeatureNames() []string {
	return append([]string(nil), s.names...)
}

// Standardize returns (v[i]-mean[i])/scale[i].
func (s *Scaler) Standardize(v []float64) ([]float64, error) {
	if err := s.check(v); err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// Inverse returns v[i]*scale[i]+mean[i].
func (s *Scaler) Inverse(v []float64) ([]float64, error) {
	if err := s.check(v); err != nil {
		return nil, err
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x*s.scale[i] + s.mean[i]
	}
	return out, nil
}

func (s *Scaler) check(v []float64) error {
	if len(v) != len(s.mean) {
		return apperrors.InvalidInput("expected %d features, got %d", len(s.mean), len(v))
	}
	for i, sc := range s.scale {
		if sc == 0 || math.IsNaN(sc) || math.IsInf(sc, 0) {
			return apperrors.DegenerateScaler("scale for feature %d is %v", i, sc)
		}
	}
	return nil
}
