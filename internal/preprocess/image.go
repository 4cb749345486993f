package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/Brownie44l1/sehatin-api/internal/errors"
)

// MaxPixels bounds the decoded size of an upload.
const MaxPixels = 8192 * 8192

// ImagePreprocessor turns an encoded image into a size×size single-channel tensor with
// values in [0,1], laid out row-major with a leading batch and channel dimension of 1.
type ImagePreprocessor struct {
	size uint
}

func NewImagePreprocessor(size int) (*ImagePreprocessor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %d", size)
	}
	return &ImagePreprocessor{size: uint(size)}, nil
}

func (p *ImagePreprocessor) Size() int { return int(p.size) }

// Prepare decodes raw, converts to luminance, resizes bilinearly to size×size and scales
// each pixel by 1/255. Every failure is a DECODE_ERROR.
func (p *ImagePreprocessor) Prepare(raw []byte) (tensor []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			tensor, err = nil, apperrors.DecodeError(nil, "image decoder panicked: %v", r)
		}
	}()

	if len(raw) == 0 {
		return nil, apperrors.DecodeError(nil, "image is empty")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.DecodeError(err, "unsupported or malformed image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, apperrors.DecodeError(nil, "%s image has zero extent %dx%d", format, cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, apperrors.DecodeError(nil, "%s image %dx%d exceeds %d pixels", format, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.DecodeError(err, "failed to decode %s image", format)
	}
	if img.Bounds().Empty() {
		return nil, apperrors.DecodeError(nil, "%s image has zero extent", format)
	}

	resized := resize.Resize(p.size, p.size, toGray(img), resize.Bilinear)

	bounds := resized.Bounds()
	if bounds.Dx() != int(p.size) || bounds.Dy() != int(p.size) {
		return nil, apperrors.DecodeError(nil, "resize produced %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), p.size, p.size)
	}

	width, height := bounds.Dx(), bounds.Dy()
	tensor = make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			tensor[y*width+x] = float32(g.Y) / 255
		}
	}
	return tensor, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}
