package model

import (
	"fmt"
	"math"
)

// BMICategory is ordered: Underweight < NormalWeight < Overweight < Obesity.
type BMICategory int

const (
	Underweight BMICategory = iota
	NormalWeight
	Overweight
	Obesity
)

var categoryNames = [...]string{
	Underweight:  "Underweight",
	NormalWeight: "Normal weight",
	Overweight:   "Overweight",
	Obesity:      "Obesity",
}

func (c BMICategory) String() string {
	if c < Underweight || c > Obesity {
		return fmt.Sprintf("BMICategory(%d)", int(c))
	}
	return categoryNames[c]
}

func (c BMICategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CategorizeBMI applies the fixed thresholds. Values in [24.9, 25) match neither the
// normal nor the overweight band and fall through to Obesity; this mirrors the deployed
// model's behaviour and is kept as is.
func CategorizeBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi >= 18.5 && bmi < 24.9:
		return NormalWeight
	case bmi >= 25 && bmi < 29.9:
		return Overweight
	default:
		return Obesity
	}
}

// RoundBMI rounds to two decimals for display, half to even: 23.125 becomes 23.12.
func RoundBMI(bmi float64) float64 {
	return math.RoundToEven(bmi*100) / 100
}

// RoundSteps rounds an inverse-scaled step prediction to the nearest 100 (half to even)
// and floors negatives at zero. The only upper bound is the int range; a prediction at or
// beyond it (including +Inf) saturates to the largest multiple of 100 an int holds.
func RoundSteps(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	steps := math.RoundToEven(raw/100) * 100
	if steps < 0 {
		return 0
	}
	if steps >= math.MaxInt64 {
		return math.MaxInt64 / 100 * 100
	}
	return int(steps)
}

// ArgMax returns the index and value of the largest score. Ties go to the lowest index and
// NaN never wins.
func ArgMax(scores []float32) (int, float32, error) {
	best := -1
	var bestVal float32
	for i, v := range scores {
		if math.IsNaN(float64(v)) {
			continue
		}
		if best == -1 || v > bestVal {
			best, bestVal = i, v
		}
	}
	if best == -1 {
		return 0, 0, fmt.Errorf("no finite scores in output of length %d", len(scores))
	}
	return best, bestVal, nil
}
