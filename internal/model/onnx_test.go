package model

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
)

// These tests need a real onnxruntime shared library and a regression graph; set
// ONNXRUNTIME_LIB and REGRESSION_ONNX to run them.
func onnxFixture(t *testing.T) (lib, graph string) {
	t.Helper()
	lib, graph = os.Getenv("ONNXRUNTIME_LIB"), os.Getenv("REGRESSION_ONNX")
	if lib == "" || graph == "" {
		t.Skip("ONNXRUNTIME_LIB and REGRESSION_ONNX not set")
	}
	return lib, graph
}

func TestONNXScorer_Deterministic(t *testing.T) {
	lib, graph := onnxFixture(t)
	require.NoError(t, InitRuntime(lib))
	t.Cleanup(ShutdownRuntime)

	s, err := NewONNXScorer(ONNXConfig{
		Path:        graph,
		InputName:   envOr("REGRESSION_INPUT", "input"),
		OutputName:  envOr("REGRESSION_OUTPUT", "output"),
		InputShape:  []int64{1, 3},
		OutputShape: []int64{1, 1},
	})
	require.NoError(t, err)
	defer s.Close()

	in := []float32{-0.97, -0.28, -0.75}
	first, err := s.Score(in)
	require.NoError(t, err)
	second, err := s.Score(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = s.Score([]float32{1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestNewONNXScorer_MissingGraph(t *testing.T) {
	lib, _ := onnxFixture(t)
	require.NoError(t, InitRuntime(lib))
	t.Cleanup(ShutdownRuntime)

	_, err := NewONNXScorer(ONNXConfig{
		Path:        "does-not-exist.onnx",
		InputName:   "input",
		OutputName:  "output",
		InputShape:  []int64{1, 3},
		OutputShape: []int64{1, 1},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeModelUnavailable))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
