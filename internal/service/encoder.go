// Package service contains the core pipeline of the OG image service:
// resolve the profile image, compose the card, encode it.
package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/h2non/bimg"

	"github.com/fleveque/og-service/internal/render"
)

// ErrEncode wraps any failure turning a finished canvas into PNG bytes.
var ErrEncode = errors.New("encoding preview image")

// EncoderOptions tunes the optimisation pass.
// bimg.Options is a struct with many fields — this is Go's alternative to
// builder patterns. We expose only the ones that matter for PNG output.
type EncoderOptions struct {
	Optimize    bool
	Compression int // zlib level, 0-9
	Palette     bool
	Quality     int
}

// Encoder serializes a canvas to PNG and, optionally, re-encodes it through
// bimg (Go bindings for libvips) to shrink the output.
// The trade-off: requires libvips as a system dependency.
type Encoder struct {
	opts EncoderOptions
}

// NewEncoder creates a new Encoder.
func NewEncoder(opts EncoderOptions) *Encoder {
	return &Encoder{opts: opts}
}

// Encode returns the PNG bytes for the rasterizer's surface.
// There is no fallback path: any error here fails the request.
func (e *Encoder) Encode(r render.Rasterizer) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	if !e.opts.Optimize {
		return buf.Bytes(), nil
	}

	optimized, err := optimizePNG(buf.Bytes(), e.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return optimized, nil
}

// optimizePNG re-encodes a PNG with libvips: metadata stripped, configured
// zlib level, and optional palette quantisation.
func optimizePNG(data []byte, opts EncoderOptions) ([]byte, error) {
	// bimg.NewImage wraps raw bytes — it doesn't copy them, just references them.
	img := bimg.NewImage(data)

	out, err := img.Process(bimg.Options{
		Type:           bimg.PNG,
		Compression:    opts.Compression,
		Palette:        opts.Palette,
		Quality:        opts.Quality,
		StripMetadata:  true,
		Interpretation: bimg.InterpretationSRGB,
	})
	if err != nil {
		return nil, fmt.Errorf("optimizing png: %w", err)
	}
	return out, nil
}
