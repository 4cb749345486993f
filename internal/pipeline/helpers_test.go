package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/sehatin-api/internal/config"
	"github.com/Brownie44l1/sehatin-api/internal/model"
	"github.com/Brownie44l1/sehatin-api/internal/preprocess"
)

var (
	testScalerX = model.ScalerParams{
		FeatureNames: []string{"gender", "bmi", "age"},
		Mean:         []float64{0.5, 24.0, 38.0},
		Scale:        []float64{0.5, 4.0, 12.0},
	}
	testScalerY = model.ScalerParams{
		FeatureNames: []string{"daily_steps"},
		Mean:         []float64{8000},
		Scale:        []float64{2500},
	}
)

// fakeScorer counts Close calls so bundle lifecycle can be asserted.
type fakeScorer struct {
	model.ScorerFunc
	closed atomic.Int32
}

func (f *fakeScorer) Close() error {
	f.closed.Add(1)
	return nil
}

// linearRegression scores w·z with fixed weights.
func linearRegression() *fakeScorer {
	return &fakeScorer{ScorerFunc: model.ScorerFunc{
		In:  []int64{1, 3},
		Out: []int64{1, 1},
		Fn: func(z []float32) ([]float32, error) {
			return []float32{-0.2*z[0] - 0.4*z[1] - 0.1*z[2]}, nil
		},
	}}
}

// constantClassifier always returns scores, regardless of input.
func constantClassifier(scores []float32) *fakeScorer {
	return &fakeScorer{ScorerFunc: model.ScorerFunc{
		In:  []int64{1, 1, 28, 28},
		Out: []int64{1, int64(len(scores))},
		Fn: func([]float32) ([]float32, error) {
			out := make([]float32, len(scores))
			copy(out, scores)
			return out, nil
		},
	}}
}

func oneHot(idx int, val float32) []float32 {
	scores := make([]float32, 36)
	for i := range scores {
		scores[i] = 0.01
	}
	scores[idx] = val
	return scores
}

func newTestBundle(t *testing.T, regression, classifier model.Scorer) *Bundle {
	t.Helper()
	sx, err := model.NewScaler(testScalerX)
	require.NoError(t, err)
	sy, err := model.NewScaler(testScalerY)
	require.NoError(t, err)
	images, err := preprocess.NewImagePreprocessor(28)
	require.NoError(t, err)

	b, err := NewBundle(sx, sy, regression, classifier, model.DefaultLabels, images)
	require.NoError(t, err)
	return b
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, data, 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

// writeArtifacts lays out a models directory; the ONNX files are placeholders for the fake
// scorer factory.
func writeArtifacts(t *testing.T) config.ModelsConfig {
	t.Helper()
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "scaler_x.json"), testScalerX)
	writeJSON(t, filepath.Join(dir, "scaler_y.json"), testScalerY)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regression.onnx"), []byte("onnx"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classifier.onnx"), []byte("onnx"), 0o600))

	return config.ModelsConfig{
		Dir:        dir,
		Regression: config.ScorerConfig{Path: "regression.onnx", InputName: "input", OutputName: "output"},
		Classifier: config.ClassifierConfig{
			ScorerConfig: config.ScorerConfig{Path: "classifier.onnx", InputName: "input", OutputName: "output"},
			Metadata:     "classifier_metadata.json",
		},
		ScalerX: "scaler_x.json",
		ScalerY: "scaler_y.json",
	}
}

// fakeScorers returns a ScorerFactory that hands out fakes keyed by file name.
func fakeScorers(classifierScores []float32) ScorerFactory {
	return func(cfg model.ONNXConfig) (model.Scorer, error) {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, err
		}
		if filepath.Base(cfg.Path) == "regression.onnx" {
			return linearRegression(), nil
		}
		s := constantClassifier(classifierScores)
		s.In = cfg.InputShape
		return s, nil
	}
}
