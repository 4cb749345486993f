// Package preprocess turns raw request input into model-ready tensors.
package preprocess

import (
	"math"
	"strings"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
)

// FeatureOrder is the column order the input scaler and regression model were fit on.
var FeatureOrder = []string{"gender", "bmi", "age"}

const (
	GenderMale   = 0
	GenderFemale = 1
)

// EncodeGender maps "male" in any case to 0 and every other value to 1.
func EncodeGender(gender string) float64 {
	if strings.EqualFold(gender, "male") {
		return GenderMale
	}
	return GenderFemale
}

// Encode builds the feature vector in FeatureOrder.
func Encode(gender string, bmi float64, age int) []float64 {
	return []float64{EncodeGender(gender), bmi, float64(age)}
}

// ComputeBMI returns weight / (height in metres)^2, rejecting inputs that would divide by
// zero or produce a negative or non-finite BMI.
func ComputeBMI(heightCM, weightKG float64) (float64, error) {
	if !(heightCM > 0) || math.IsInf(heightCM, 0) {
		return 0, apperrors.InvalidInput("height must be a positive number of centimetres, got %v", heightCM)
	}
	if !(weightKG > 0) || math.IsInf(weightKG, 0) {
		return 0, apperrors.InvalidInput("weight must be a positive number of kilograms, got %v", weightKG)
	}
	bmi := weightKG / math.Pow(heightCM/100, 2)
	if math.IsInf(bmi, 0) || math.IsNaN(bmi) {
		return 0, apperrors.InvalidInput("height %v cm and weight %v kg give no finite BMI", heightCM, weightKG)
	}
	return bmi, nil
}

// CheckFeatureOrder fails unless names is empty or equal to FeatureOrder.
func CheckFeatureOrder(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(FeatureOrder) {
		return apperrors.ModelUnavailable(nil, "scaler was fit on %v, serving encodes %v", names, FeatureOrder)
	}
	for i := range names {
		if names[i] != FeatureOrder[i] {
			return apperrors.ModelUnavailable(nil, "scaler was fit on %v, serving encodes %v", names, FeatureOrder)
		}
	}
	return nil
}
