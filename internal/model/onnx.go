package model

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
)

// InitRuntime loads the ONNX Runtime shared library. It must run once before any
// ONNXScorer is created.
func InitRuntime(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func ShutdownRuntime() {
	if ort.IsInitialized() {
		ort.DestroyEnvironment()
	}
}

type ONNXConfig struct {
	Path        string
	InputName   string
	OutputName  string
	InputShape  []int64
	OutputShape []int64
}

// ONNXScorer runs one ONNX graph with pre-allocated input and output tensors. Runs are
// serialised because the tensors are shared.
type ONNXScorer struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inShape      []int64
	outShape     []int64
}

func NewONNXScorer(cfg ONNXConfig) (*ONNXScorer, error) {
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape...))
	if err != nil {
		return nil, apperrors.ModelUnavailable(err, "failed to create input tensor")
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, apperrors.ModelUnavailable(err, "failed to create output tensor")
	}

	session, err := ort.NewAdvancedSession(cfg.Path,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, apperrors.ModelUnavailable(err, "failed to create ONNX session for %s", cfg.Path)
	}

	return &ONNXScorer{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inShape:      append([]int64(nil), cfg.InputShape...),
		outShape:     append([]int64(nil), cfg.OutputShape...),
	}, nil
}

func (s *ONNXScorer) Score(input []float32) ([]float32, error) {
	if err := checkInput(s.inShape, input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, apperrors.ModelUnavailable(nil, "scorer is closed")
	}

	copy(s.inputTensor.GetData(), input)
	if err := s.session.Run(); err != nil {
		return nil, apperrors.InferenceFailed(err, "inference failed")
	}

	out := make([]float32, len(s.outputTensor.GetData()))
	copy(out, s.outputTensor.GetData())
	return out, nil
}

func (s *ONNXScorer) InputShape() []int64  { return s.inShape }
func (s *ONNXScorer) OutputShape() []int64 { return s.outShape }

func (s *ONNXScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	return nil
}
