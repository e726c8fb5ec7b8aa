package render

import (
	"image"
	"math"
)

// CropRect is a region of a source image, in source pixels.
type CropRect struct {
	SX, SY, SWidth, SHeight float64
}

// Rectangle rounds the crop to whole pixels for image APIs.
func (c CropRect) Rectangle() image.Rectangle {
	x0 := int(math.Round(c.SX))
	y0 := int(math.Round(c.SY))
	return image.Rect(x0, y0, x0+int(math.Round(c.SWidth)), y0+int(math.Round(c.SHeight)))
}

// CoverFit returns the source crop that fills a dstW x dstH box without
// distortion, like CSS object-fit: cover. The overflowing axis is centered.
// A source with exactly the target aspect is returned whole.
func CoverFit(srcW, srcH, dstW, dstH int) CropRect {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return CropRect{}
	}

	w, h := float64(srcW), float64(srcH)
	imgAspect := w / h
	targetAspect := float64(dstW) / float64(dstH)

	if imgAspect > targetAspect {
		sHeight := h
		sWidth := sHeight * targetAspect
		return CropRect{SX: (w - sWidth) / 2, SY: 0, SWidth: sWidth, SHeight: sHeight}
	}

	sWidth := w
	sHeight := sWidth / targetAspect
	return CropRect{SX: 0, SY: (h - sHeight) / 2, SWidth: sWidth, SHeight: sHeight}
}

// CoverCrop is CoverFit for a square target of the given side.
func CoverCrop(srcW, srcH, side int) CropRect {
	return CoverFit(srcW, srcH, side, side)
}
