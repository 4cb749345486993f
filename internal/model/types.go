package model

// Metadata describes the classifier artifact. It is read from the JSON file shipped next to
// the ONNX graph.
type Metadata struct {
	InputShape  []int64  `json:"input_shape,omitempty"`
	OutputShape []int64  `json:"output_shape,omitempty"`
	Classes     []string `json:"classes,omitempty"`
	ImageSize   int      `json:"image_size,omitempty"`
}

// BMIRequest is the validated form input of the BMI pipeline.
type BMIRequest struct {
	Gender   string
	Age      int
	HeightCM float64
	WeightKG float64
}

type BMIResult struct {
	Gender                  string      `json:"gender"`
	Age                     int         `json:"age"`
	HeightCM                float64     `json:"height_cm"`
	WeightKG                float64     `json:"weight_kg"`
	BMI                     float64     `json:"bmi"`
	Category                BMICategory `json:"category"`
	DailyStepRecommendation int         `json:"daily_step_recommendation"`
}

type GlyphResult struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
