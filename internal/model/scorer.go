package model

import (
	"fmt"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
)

// Scorer is a pre-trained model: a deterministic function from a fixed-shape float32
// tensor to a fixed-shape float32 tensor. Implementations must be safe for concurrent use.
type Scorer interface {
	Score(input []float32) ([]float32, error)
	InputShape() []int64
	OutputShape() []int64
	Close() error
}

// ScorerFunc adapts a plain function with fixed shapes to the Scorer interface.
type ScorerFunc struct {
	In, Out []int64
	Fn      func(input []float32) ([]float32, error)
}

func (f ScorerFunc) Score(input []float32) ([]float32, error) {
	if err := checkInput(f.In, input); err != nil {
		return nil, err
	}
	return f.Fn(input)
}

func (f ScorerFunc) InputShape() []int64  { return f.In }
func (f ScorerFunc) OutputShape() []int64 { return f.Out }
func (f ScorerFunc) Close() error         { return nil }

func checkInput(shape []int64, input []float32) error {
	if want := ShapeSize(shape); len(input) != want {
		return apperrors.InvalidInput("expected %d input values for shape %v, got %d", want, shape, len(input))
	}
	return nil
}

// CheckShapes verifies a scorer's declared shapes hold the expected number of elements.
func CheckShapes(s Scorer, inputSize, outputSize int) error {
	if got := ShapeSize(s.InputShape()); got != inputSize {
		return fmt.Errorf("scorer input shape %v holds %d values, want %d", s.InputShape(), got, inputSize)
	}
	if got := ShapeSize(s.OutputShape()); got != outputSize {
		return fmt.Errorf("scorer output shape %v holds %d values, want %d", s.OutputShape(), got, outputSize)
	}
	return nil
}
