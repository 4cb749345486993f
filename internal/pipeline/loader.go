package pipeline

import (
	"go.uber.org/zap"

	"github.com/Brownie44l1/sehatin-api/internal/config"
	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
	"github.com/Brownie44l1/sehatin-api/internal/model"
	"github.com/Brownie44l1/sehatin-api/internal/preprocess"
)

// ScorerFactory opens a scorer for one model artifact.
type ScorerFactory func(cfg model.ONNXConfig) (model.Scorer, error)

// ONNXScorers is the production ScorerFactory.
func ONNXScorers(cfg model.ONNXConfig) (model.Scorer, error) {
	return model.NewONNXScorer(cfg)
}

// Loader builds bundles from the artifacts named in the models config.
type Loader struct {
	cfg       config.ModelsConfig
	newScorer ScorerFactory
	log       *zap.Logger
}

func NewLoader(cfg config.ModelsConfig, newScorer ScorerFactory, log *zap.Logger) *Loader {
	return &Loader{cfg: cfg, newScorer: newScorer, log: log}
}

// Paths lists every artifact file the loader reads.
func (l *Loader) Paths() []string {
	return []string{
		l.cfg.Resolve(l.cfg.Regression.Path),
		l.cfg.Resolve(l.cfg.Classifier.Path),
		l.cfg.Resolve(l.cfg.Classifier.Metadata),
		l.cfg.Resolve(l.cfg.ScalerX),
		l.cfg.Resolve(l.cfg.ScalerY),
	}
}

// Load reads all artifacts. Any failure is MODEL_UNAVAILABLE and leaves nothing open.
func (l *Loader) Load() (*Bundle, error) {
	scalerX, err := model.LoadScaler(l.cfg.Resolve(l.cfg.ScalerX))
	if err != nil {
		return nil, apperrors.ModelUnavailable(err, "input scaler")
	}
	scalerY, err := model.LoadScaler(l.cfg.Resolve(l.cfg.ScalerY))
	if err != nil {
		return nil, apperrors.ModelUnavailable(err, "output scaler")
	}

	meta, err := model.LoadMetadata(l.cfg.Resolve(l.cfg.Classifier.Metadata))
	if err != nil {
		return nil, apperrors.ModelUnavailable(err, "classifier metadata")
	}
	labels, err := model.NewLabelSpace(meta.Classes)
	if err != nil {
		return nil, apperrors.ModelUnavailable(err, "classifier labels")
	}
	images, err := preprocess.NewImagePreprocessor(meta.ImageSize)
	if err != nil {
		return nil, apperrors.ModelUnavailable(err, "classifier metadata")
	}

	regression, err := l.newScorer(model.ONNXConfig{
		Path:        l.cfg.Resolve(l.cfg.Regression.Path),
		InputName:   l.cfg.Regression.InputName,
		OutputName:  l.cfg.Regression.OutputName,
		InputShape:  []int64{1, int64(len(preprocess.FeatureOrder))},
		OutputShape: []int64{1, 1},
	})
	if err != nil {
		return nil, apperrors.ModelUnavailable(err, "regression model")
	}

	classifier, err := l.newScorer(model.ONNXConfig{
		Path:        l.cfg.Resolve(l.cfg.Classifier.Path),
		InputName:   l.cfg.Classifier.InputName,
		OutputName:  l.cfg.Classifier.OutputName,
		InputShape:  meta.InputShape,
		OutputShape: meta.OutputShape,
	})
	if err != nil {
		regression.Close()
		return nil, apperrors.ModelUnavailable(err, "classification model")
	}

	bundle, err := NewBundle(scalerX, scalerY, regression, classifier, labels, images)
	if err != nil {
		regression.Close()
		classifier.Close()
		return nil, err
	}

	l.log.Info("model bundle loaded",
		zap.String("regression", l.cfg.Resolve(l.cfg.Regression.Path)),
		zap.String("classifier", l.cfg.Resolve(l.cfg.Classifier.Path)),
		zap.Strings("labels", labels),
		zap.Int("image_size", images.Size()),
	)
	return bundle, nil
}
