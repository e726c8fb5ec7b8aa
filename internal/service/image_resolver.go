package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // Registers the WebP decoder with the image package.

	"github.com/fleveque/og-service/internal/model"
	"github.com/fleveque/og-service/internal/storage"
)

// ErrFallbackUnavailable means the default profile image itself could not be
// loaded. That's a packaging defect, not a bad request.
var ErrFallbackUnavailable = errors.New("default profile image unavailable")

// ImageSource reads profile images by reference. storage.FileSystem satisfies it.
type ImageSource interface {
	Read(ref string) ([]byte, error)
}

// ResolveError explains why a requested profile image can't be drawn.
// It is never shown to the client; the resolver swaps in the default image.
type ResolveError struct {
	Ref string
	Op  string // "lookup", "read" or "decode"
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s profile image %q: %v", e.Op, e.Ref, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

var errNoReference = errors.New("no reference given")

// ImageResolver turns a profileImage reference into a decoded bitmap,
// falling back to the default profile image whenever the reference can't be used.
type ImageResolver struct {
	images       ImageSource
	fallbackPath string
	logger       *zap.Logger
}

// NewImageResolver creates a resolver reading uploads from images and the
// default image from fallbackPath.
func NewImageResolver(images ImageSource, fallbackPath string, logger *zap.Logger) *ImageResolver {
	return &ImageResolver{
		images:       images,
		fallbackPath: fallbackPath,
		logger:       logger,
	}
}

// Resolve always returns an image unless the default image is broken.
func (r *ImageResolver) Resolve(ref string) (*model.ResolvedImage, error) {
	img, rerr := r.loadRequested(ref)
	if rerr == nil {
		return model.NewResolvedImage(img, model.ProvenanceRequested), nil
	}

	// Expected for most requests (no photo uploaded), so debug level only.
	r.logger.Debug("using default profile image",
		zap.String("ref", ref),
		zap.String("op", rerr.Op),
		zap.Error(rerr.Err),
	)

	img, err := r.loadFallback()
	if err != nil {
		return nil, err
	}
	return model.NewResolvedImage(img, model.ProvenanceFallback), nil
}

// loadRequested returns either an image or the reason it can't be used.
// The concrete *ResolveError return (rather than error) keeps the
// "fall back, don't fail" contract visible at the call site.
func (r *ImageResolver) loadRequested(ref string) (image.Image, *ResolveError) {
	if ref == "" {
		return nil, &ResolveError{Ref: ref, Op: "lookup", Err: errNoReference}
	}

	data, err := r.images.Read(ref)
	if err != nil {
		return nil, &ResolveError{Ref: ref, Op: "read", Err: err}
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, &ResolveError{Ref: ref, Op: "decode", Err: err}
	}
	return img, nil
}

func (r *ImageResolver) loadFallback() (image.Image, error) {
	data, err := storage.ReadAsset(r.fallbackPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFallbackUnavailable, err)
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrFallbackUnavailable, r.fallbackPath, err)
	}
	return img, nil
}

// decodeImage decodes any registered format (PNG, JPEG, GIF, BMP, TIFF, WebP)
// and applies the EXIF orientation, so phone photos aren't drawn sideways.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}
	return img, nil
}
