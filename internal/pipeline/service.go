// Package pipeline runs the two inference pipelines against the current model bundle.
package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
	"github.com/Brownie44l1/sehatin-api/internal/logger"
	"github.com/Brownie44l1/sehatin-api/internal/metrics"
	"github.com/Brownie44l1/sehatin-api/internal/model"
	"github.com/Brownie44l1/sehatin-api/internal/preprocess"
)

// Service is stateless between requests; all shared state lives in the registry's bundle.
type Service struct {
	registry *Registry
}

func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// PredictBMI computes BMI, its category and a recommended daily step count.
func (s *Service) PredictBMI(ctx context.Context, req model.BMIRequest) (res *model.BMIResult, err error) {
	defer observe(metrics.PipelineBMI, time.Now(), &err)
	log := logger.FromContext(ctx).With(zap.String("pipeline", metrics.PipelineBMI))

	if req.Age < 1 {
		return nil, apperrors.InvalidInput("age must be at least 1, got %d", req.Age)
	}
	bmi, err := preprocess.ComputeBMI(req.HeightCM, req.WeightKG)
	if err != nil {
		return nil, err
	}
	log.Debug("calculated BMI", zap.Float64("bmi", bmi))

	b, release, err := s.registry.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	features := preprocess.Encode(req.Gender, bmi, req.Age)
	standardized, err := b.ScalerX.Standardize(features)
	if err != nil {
		return nil, err
	}
	log.Debug("standardized input", zap.Float64s("features", standardized))

	scored, err := b.Regression.Score(toFloat32(standardized))
	if err != nil {
		return nil, err
	}
	if len(scored) != 1 {
		return nil, apperrors.InferenceFailed(nil, "regression model returned %d values, want 1", len(scored))
	}

	raw, err := b.ScalerY.Inverse([]float64{float64(scored[0])})
	if err != nil {
		return nil, err
	}
	steps := model.RoundSteps(raw[0])
	log.Debug("predicted daily steps", zap.Float64("raw", raw[0]), zap.Int("steps", steps))

	category := model.CategorizeBMI(bmi)
	metrics.BMICategories.WithLabelValues(category.String()).Inc()

	return &model.BMIResult{
		Gender:                  capitalize(req.Gender),
		Age:                     req.Age,
		HeightCM:                req.HeightCM,
		WeightKG:                req.WeightKG,
		BMI:                     model.RoundBMI(bmi),
		Category:                category,
		DailyStepRecommendation: steps,
	}, nil
}

// ClassifyImage recognises a single glyph in an encoded image.
func (s *Service) ClassifyImage(ctx context.Context, raw []byte) (res *model.GlyphResult, err error) {
	defer observe(metrics.PipelineGlyph, time.Now(), &err)
	log := logger.FromContext(ctx).With(zap.String("pipeline", metrics.PipelineGlyph))

	b, release, err := s.registry.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	tensor, err := b.Images.Prepare(raw)
	if err != nil {
		return nil, err
	}

	scores, err := b.Classifier.Score(tensor)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(b.Labels) {
		return nil, apperrors.InferenceFailed(nil, "classifier returned %d scores for %d labels", len(scores), len(b.Labels))
	}

	idx, confidence, err := model.ArgMax(scores)
	if err != nil {
		return nil, apperrors.InferenceFailed(err, "no prediction")
	}
	label, err := b.Labels.At(idx)
	if err != nil {
		return nil, apperrors.InferenceFailed(err, "no label")
	}
	log.Debug("classified glyph", zap.String("label", label), zap.Float32("confidence", confidence))
	metrics.GlyphPredictions.WithLabelValues(label).Inc()

	return &model.GlyphResult{
		Prediction: label,
		Confidence: float64(confidence),
	}, nil
}

func observe(pipeline string, start time.Time, err *error) {
	metrics.InferenceDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
	if *err != nil {
		metrics.InferenceRequests.WithLabelValues(pipeline, "error").Inc()
		metrics.InferenceErrors.WithLabelValues(pipeline, string(apperrors.CodeOf(*err))).Inc()
		return
	}
	metrics.InferenceRequests.WithLabelValues(pipeline, "ok").Inc()
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// capitalize upper-cases the first character and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return strings.ToLower(s)
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
