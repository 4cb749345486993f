package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
	"github.com/Brownie44l1/sehatin-api/internal/logger"
	"github.com/Brownie44l1/sehatin-api/internal/model"
)

func newTestService(t *testing.T, classifierScores []float32) (*Service, context.Context) {
	t.Helper()
	log := zaptest.NewLogger(t)
	b := newTestBundle(t, linearRegression(), constantClassifier(classifierScores))
	return NewService(NewRegistry(b, log)), logger.WithContext(context.Background(), log)
}

func blackPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPredictBMI_NormalWeightMale(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(0, 0.9))

	res, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "male", Age: 30, HeightCM: 180, WeightKG: 75})
	require.NoError(t, err)

	assert.Equal(t, "Male", res.Gender)
	assert.Equal(t, 30, res.Age)
	assert.Equal(t, 180.0, res.HeightCM)
	assert.Equal(t, 75.0, res.WeightKG)
	assert.Equal(t, 23.15, res.BMI)
	assert.Equal(t, model.NormalWeight, res.Category)

	// z = (-1, -0.2130, -0.6667); score = 0.2 + 0.0852 + 0.0667 = 0.3519; steps = 8000 + 2500*0.3519 ≈ 8879.6
	assert.Equal(t, 8900, res.DailyStepRecommendation)

	again, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "male", Age: 30, HeightCM: 180, WeightKG: 75})
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestPredictBMI_ObeseFemale(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(0, 0.9))

	res, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "female", Age: 40, HeightCM: 150, WeightKG: 90})
	require.NoError(t, err)
	assert.Equal(t, "Female", res.Gender)
	assert.Equal(t, 40.0, res.BMI)
	assert.Equal(t, model.Obesity, res.Category)
	assert.GreaterOrEqual(t, res.DailyStepRecommendation, 0)
	assert.Zero(t, res.DailyStepRecommendation%100)
}

func TestPredictBMI_BMITieRoundsHalfToEven(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(0, 0.9))

	// 92.5 / 2.0^2 is exactly 23.125.
	res, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "male", Age: 30, HeightCM: 200, WeightKG: 92.5})
	require.NoError(t, err)
	assert.Equal(t, 23.12, res.BMI)
	assert.Equal(t, model.NormalWeight, res.Category)
}

func TestPredictBMI_NegativeStepsAreFloored(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(0, 0.9))

	// Very high BMI drives the linear fake far below the output mean.
	res, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "female", Age: 90, HeightCM: 100, WeightKG: 300})
	require.NoError(t, err)
	assert.Equal(t, 0, res.DailyStepRecommendation)
}

func TestPredictBMI_GenderIsCaseInsensitive(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(0, 0.9))

	base, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "male", Age: 30, HeightCM: 180, WeightKG: 75})
	require.NoError(t, err)
	for _, g := range []string{"Male", "MALE"} {
		res, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: g, Age: 30, HeightCM: 180, WeightKG: 75})
		require.NoError(t, err)
		assert.Equal(t, base.DailyStepRecommendation, res.DailyStepRecommendation, g)
		assert.Equal(t, "Male", res.Gender)
	}

	female, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "female", Age: 30, HeightCM: 180, WeightKG: 75})
	require.NoError(t, err)
	other, err := svc.PredictBMI(ctx, model.BMIRequest{Gender: "other", Age: 30, HeightCM: 180, WeightKG: 75})
	require.NoError(t, err)
	assert.Equal(t, female.DailyStepRecommendation, other.DailyStepRecommendation)
}

func TestPredictBMI_InvalidInput(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(0, 0.9))

	cases := map[string]model.BMIRequest{
		"zero height":     {Gender: "male", Age: 30, HeightCM: 0, WeightKG: 75},
		"negative weight": {Gender: "male", Age: 30, HeightCM: 180, WeightKG: -1},
		"zero age":        {Gender: "male", Age: 0, HeightCM: 180, WeightKG: 75},
		"nan height":      {Gender: "male", Age: 30, HeightCM: math.NaN(), WeightKG: 75},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := svc.PredictBMI(ctx, req)
			assert.Nil(t, res)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "got %v", err)
		})
	}
}

func TestPredictBMI_DegenerateScaler(t *testing.T) {
	sx, err := model.NewScaler(model.ScalerParams{Mean: []float64{0, 0, 0}, Scale: []float64{1, 0, 1}})
	require.NoError(t, err)
	b := newTestBundle(t, linearRegression(), constantClassifier(oneHot(0, 1)))
	b.ScalerX = sx
	svc := NewService(NewRegistry(b, zaptest.NewLogger(t)))

	res, err := svc.PredictBMI(context.Background(), model.BMIRequest{Gender: "male", Age: 30, HeightCM: 180, WeightKG: 75})
	assert.Nil(t, res)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDegenerateScaler))
}

func TestPredictBMI_ScorerFailureAborts(t *testing.T) {
	broken := &fakeScorer{ScorerFunc: model.ScorerFunc{
		In: []int64{1, 3}, Out: []int64{1, 1},
		Fn: func([]float32) ([]float32, error) {
			return nil, apperrors.InferenceFailed(nil, "session run failed")
		},
	}}
	b := newTestBundle(t, broken, constantClassifier(oneHot(0, 1)))
	svc := NewService(NewRegistry(b, zaptest.NewLogger(t)))

	res, err := svc.PredictBMI(context.Background(), model.BMIRequest{Gender: "male", Age: 30, HeightCM: 180, WeightKG: 75})
	assert.Nil(t, res)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInferenceFailed))
}

func TestClassifyImage_BlackPNG(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(17, 0.83))

	res, err := svc.ClassifyImage(ctx, blackPNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, "H", res.Prediction)
	assert.InDelta(t, 0.83, res.Confidence, 1e-6)
}

func TestClassifyImage_TieTakesLowestIndex(t *testing.T) {
	scores := oneHot(12, 0.5)
	scores[30] = 0.5
	svc, ctx := newTestService(t, scores)

	res, err := svc.ClassifyImage(ctx, blackPNG(t, 28, 28))
	require.NoError(t, err)
	assert.Equal(t, "C", res.Prediction)
	assert.InDelta(t, 0.5, res.Confidence, 1e-6)
}

func TestClassifyImage_LabelAlwaysInLabelSpace(t *testing.T) {
	for idx := 0; idx < 36; idx++ {
		svc, ctx := newTestService(t, oneHot(idx, 0.6))
		res, err := svc.ClassifyImage(ctx, blackPNG(t, 5, 7))
		require.NoError(t, err)
		assert.Contains(t, []string(model.DefaultLabels), res.Prediction)
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	}
}

func TestClassifyImage_MalformedBytes(t *testing.T) {
	svc, ctx := newTestService(t, oneHot(0, 0.9))

	res, err := svc.ClassifyImage(ctx, []byte("GIF89a-not-really"))
	assert.Nil(t, res)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDecodeError), "got %v", err)
}

func TestClassifyImage_WrongOutputLength(t *testing.T) {
	b := newTestBundle(t, linearRegression(), constantClassifier(oneHot(0, 1)))
	b.Classifier = &fakeScorer{ScorerFunc: model.ScorerFunc{
		In: []int64{1, 1, 28, 28}, Out: []int64{1, 36},
		Fn: func([]float32) ([]float32, error) { return []float32{1, 2}, nil },
	}}
	svc := NewService(NewRegistry(b, zaptest.NewLogger(t)))

	_, err := svc.ClassifyImage(context.Background(), blackPNG(t, 4, 4))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInferenceFailed))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Male", capitalize("mALE"))
	assert.Equal(t, "Female", capitalize("female"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Élan", capitalize("éLAN"))
}

func TestNewBundle_RejectsMismatches(t *testing.T) {
	sx, err := model.NewScaler(testScalerX)
	require.NoError(t, err)
	sy, err := model.NewScaler(testScalerY)
	require.NoError(t, err)
	images := newTestBundle(t, linearRegression(), constantClassifier(oneHot(0, 1))).Images

	reordered, err := model.NewScaler(model.ScalerParams{
		FeatureNames: []string{"bmi", "gender", "age"},
		Mean:         []float64{1, 1, 1},
		Scale:        []float64{1, 1, 1},
	})
	require.NoError(t, err)
	_, err = NewBundle(reordered, sy, linearRegression(), constantClassifier(oneHot(0, 1)), model.DefaultLabels, images)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeModelUnavailable))

	_, err = NewBundle(sx, sx, linearRegression(), constantClassifier(oneHot(0, 1)), model.DefaultLabels, images)
	assert.Error(t, err, "three-feature output scaler")

	_, err = NewBundle(sx, sy, linearRegression(), constantClassifier(make([]float32, 10)), model.DefaultLabels, images)
	assert.Error(t, err, "classifier output does not match label space")
}
