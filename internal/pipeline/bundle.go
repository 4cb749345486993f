package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
	"github.com/Brownie44l1/sehatin-api/internal/model"
	"github.com/Brownie44l1/sehatin-api/internal/preprocess"
)

// Bundle is the set of artifacts served together. It is read-only once built; Close
// waits for every in-flight request holding it.
type Bundle struct {
	ScalerX    *model.Scaler
	ScalerY    *model.Scaler
	Regression model.Scorer
	Classifier model.Scorer
	Labels     model.LabelSpace
	Images     *preprocess.ImagePreprocessor

	mu     sync.RWMutex
	closed bool
}

// NewBundle checks that the parts agree on shapes and feature order.
func NewBundle(scalerX, scalerY *model.Scaler, regression, classifier model.Scorer,
	labels model.LabelSpace, images *preprocess.ImagePreprocessor) (*Bundle, error) {
	if err := preprocess.CheckFeatureOrder(scalerX.FeatureNames()); err != nil {
		return nil, err
	}
	if scalerX.Dim() != len(preprocess.FeatureOrder) {
		return nil, apperrors.ModelUnavailable(nil, "input scaler has %d features, want %d", scalerX.Dim(), len(preprocess.FeatureOrder))
	}
	if scalerY.Dim() != 1 {
		return nil, apperrors.ModelUnavailable(nil, "output scaler has %d features, want 1", scalerY.Dim())
	}
	if err := model.CheckShapes(regression, scalerX.Dim(), 1); err != nil {
		return nil, apperrors.ModelUnavailable(err, "regression model")
	}
	size := images.Size()
	if err := model.CheckShapes(classifier, size*size, len(labels)); err != nil {
		return nil, apperrors.ModelUnavailable(err, "classification model")
	}
	return &Bundle{
		ScalerX:    scalerX,
		ScalerY:    scalerY,
		Regression: regression,
		Classifier: classifier,
		Labels:     labels,
		Images:     images,
	}, nil
}

func (b *Bundle) acquire() bool {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return false
	}
	return true
}

func (b *Bundle) release() {
	b.mu.RUnlock()
}

// Close releases both scorers after in-flight requests finish. It is idempotent.
func (b *Bundle) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.Regression != nil {
		err = multierr.Append(err, b.Regression.Close())
	}
	if b.Classifier != nil {
		err = multierr.Append(err, b.Classifier.Close())
	}
	if err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	return nil
}
