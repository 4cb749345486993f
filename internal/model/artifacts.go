package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const scalerSchema = `{
  "type": "object",
  "required": ["mean", "scale"],
  "properties": {
    "feature_names": {"type": "array", "items": {"type": "string"}},
    "mean":  {"type": "array", "minItems": 1, "items": {"type": "number"}},
    "scale": {"type": "array", "minItems": 1, "items": {"type": "number"}}
  }
}`

const metadataSchema = `{
  "type": "object",
  "properties": {
    "input_shape":  {"type": "array", "minItems": 1, "items": {"type": "integer", "minimum": 1}},
    "output_shape": {"type": "array", "minItems": 1, "items": {"type": "integer", "minimum": 1}},
    "classes":      {"type": "array", "items": {"type": "string", "minLength": 1}},
    "image_size":   {"type": "integer", "minimum": 0}
  }
}`

func validateArtifact(schema string, doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// LoadMetadata reads the classifier metadata file. A missing file yields the default
// 28x28 single-channel, 36-class layout.
func LoadMetadata(path string) (Metadata, error) {
	meta := DefaultMetadata()
	if path == "" {
		return meta, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return meta, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := validateArtifact(metadataSchema, data); err != nil {
		return Metadata{}, fmt.Errorf("metadata %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if meta.ImageSize == 0 {
		meta.ImageSize = GlyphSize
	}
	return meta, nil
}

func DefaultMetadata() Metadata {
	return Metadata{
		InputShape:  []int64{1, 1, GlyphSize, GlyphSize},
		OutputShape: []int64{1, int64(len(DefaultLabels))},
		Classes:     append([]string(nil), DefaultLabels...),
		ImageSize:   GlyphSize,
	}
}

// ShapeSize is the number of elements in a tensor of the given shape.
func ShapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}
