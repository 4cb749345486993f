package handlers

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
	"github.com/Brownie44l1/sehatin-api/internal/logger"
	"github.com/Brownie44l1/sehatin-api/internal/model"
)

//go:embed static/index.html
var indexHTML []byte

// Predictor is the pipeline surface the handlers need.
type Predictor interface {
	PredictBMI(ctx context.Context, req model.BMIRequest) (*model.BMIResult, error)
	ClassifyImage(ctx context.Context, raw []byte) (*model.GlyphResult, error)
}

type Handler struct {
	predictor      Predictor
	maxUploadBytes int64
}

func NewHandler(predictor Predictor, maxUploadBytes int64) *Handler {
	return &Handler{
		predictor:      predictor,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// CalculateBMI handles the form post from the home page.
func (h *Handler) CalculateBMI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log := logger.FromContext(r.Context())

	req, err := h.parseBMIForm(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	log.Info("bmi request",
		zap.String("gender", req.Gender),
		zap.Int("age", req.Age),
		zap.Float64("height_cm", req.HeightCM),
		zap.Float64("weight_kg", req.WeightKG),
	)

	result, err := h.predictor.PredictBMI(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	log.Info("bmi prediction",
		zap.Float64("bmi", result.BMI),
		zap.Stringer("category", result.Category),
		zap.Int("daily_steps", result.DailyStepRecommendation),
	)
	writeJSON(w, http.StatusOK, result)
}

// Predict classifies an uploaded image. The file is read from the "file" field, then
// "image", then any other file part.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.fail(w, r, apperrors.InvalidInput("failed to parse upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	header := uploadedFile(r.MultipartForm)
	if header == nil {
		h.fail(w, r, apperrors.InvalidInput("no image file provided, use 'file' as the form field name"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.fail(w, r, apperrors.InvalidInput("failed to open upload: %v", err))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, apperrors.InvalidInput("failed to read upload: %v", err))
		return
	}
	log.Info("received file", zap.String("filename", header.Filename), zap.Int("bytes", len(raw)))

	result, err := h.predictor.ClassifyImage(r.Context(), raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	log.Info("glyph prediction", zap.String("prediction", result.Prediction), zap.Float64("confidence", result.Confidence))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) parseBMIForm(w http.ResponseWriter, r *http.Request) (model.BMIRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return model.BMIRequest{}, apperrors.InvalidInput("failed to parse form: %v", err)
	}

	var req model.BMIRequest
	var err error
	if req.Gender, err = formValue(r, "gender"); err != nil {
		return req, err
	}

	ageStr, err := formValue(r, "age")
	if err != nil {
		return req, err
	}
	if req.Age, err = strconv.Atoi(strings.TrimSpace(ageStr)); err != nil {
		return req, apperrors.InvalidInput("age must be an integer, got %q", ageStr)
	}

	if req.HeightCM, err = floatField(r, "height"); err != nil {
		return req, err
	}
	if req.WeightKG, err = floatField(r, "weight"); err != nil {
		return req, err
	}
	return req, nil
}

func formValue(r *http.Request, key string) (string, error) {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", apperrors.InvalidInput("missing required field %q", key)
	}
	return values[0], nil
}

func floatField(r *http.Request, key string) (float64, error) {
	s, err := formValue(r, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, apperrors.InvalidInput("%s must be a number, got %q", key, s)
	}
	return v, nil
}

func uploadedFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	for _, key := range []string{"file", "image"} {
		if files := form.File[key]; len(files) > 0 {
			return files[0]
		}
	}
	for _, files := range form.File {
		if len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

// fail logs err and writes the structured error body. Every pipeline failure is a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("request failed",
		zap.String("code", string(apperrors.CodeOf(err))),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
