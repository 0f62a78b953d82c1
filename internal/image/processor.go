package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"regexp"

	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// dataURLPattern matches the only accepted upload format: a base64 image
// data URL.
var dataURLPattern = regexp.MustCompile(`^data:(image/[a-zA-Z0-9.+-]+);base64,(.+)$`)

// ErrInvalidFormat is returned for payloads that are not base64 image data
// URLs.
var ErrInvalidFormat = errors.New("invalid image format, expected a base64 image data URL")

// ErrTooLarge is returned when the decoded payload exceeds the configured
// cap.
var ErrTooLarge = errors.New("image too large")

// Processor decodes, downscales, and recompresses inbound images.
//
// The output is always a freshly encoded JPEG, which also drops any
// metadata carried by the original file.
type Processor struct {
	maxBytes     int
	maxDimension int
	jpegQuality  int
	logger       *zap.Logger
}

// NewProcessor builds an image processor. maxBytes caps the decoded payload
// size, maxDimension bounds the output box, jpegQuality is 1-100.
func NewProcessor(maxBytes, maxDimension, jpegQuality int, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		maxBytes:     maxBytes,
		maxDimension: maxDimension,
		jpegQuality:  jpegQuality,
		logger:       logger,
	}
}

// Process validates and optimizes a base64 image data URL, returning a
// `data:image/jpeg;base64,` data URL of the result.
func (p *Processor) Process(dataURL string) (string, error) {
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if m == nil {
		return "", ErrInvalidFormat
	}
	mime, payload := m[1], m[2]

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid base64 data: %w", err)
	}

	// Allow 5% slack over the configured cap to absorb client-side
	// measurement drift.
	if len(raw) > p.maxBytes+p.maxBytes/20 {
		return "", ErrTooLarge
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	out := p.fit(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	p.logger.Debug("optimized image",
		zap.String("declaredMime", mime),
		zap.String("decodedFormat", format),
		zap.Int("inBytes", len(raw)),
		zap.Int("outBytes", buf.Len()))

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fit downscales src to fit inside the maxDimension bounding box, preserving
// aspect ratio. Images already inside the box pass through unscaled.
func (p *Processor) fit(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= p.maxDimension && h <= p.maxDimension {
		return src
	}

	outW, outH := w, h
	if w >= h {
		outW = p.maxDimension
		outH = h * p.maxDimension / w
	} else {
		outH = p.maxDimension
		outW = w * p.maxDimension / h
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
