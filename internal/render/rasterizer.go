// Package render draws the Open Graph preview card.
//
// Drawing goes through the Rasterizer interface so the layout code doesn't
// care which 2D library fills the pixels. The production implementation is
// backed by fogleman/gg.
package render

import (
	"image"
	"image/color"
	"io"
)

// FontWeight selects one of the bundled font families.
type FontWeight int

const (
	Regular FontWeight = iota
	Bold
)

// Align is the horizontal anchor of a text run.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle describes how DrawText renders a string.
type TextStyle struct {
	Weight FontWeight
	Size   float64
	Color  color.Color
	Align  Align
}

// Rasterizer is the set of 2D primitives the compositor needs.
// A Rasterizer owns one surface and is not safe for concurrent use.
type Rasterizer interface {
	// FillBackground paints the whole surface, ignoring any clip.
	FillBackground(c color.Color)
	FillCircle(cx, cy, r float64, c color.Color)
	// DrawText draws text vertically centered on y, anchored on x per style.Align.
	DrawText(text string, x, y float64, style TextStyle)
	DrawRoundedRect(x, y, w, h, r float64, c color.Color)
	DrawLine(x1, y1, x2, y2, width float64, c color.Color)
	// ClipCircle restricts subsequent drawing to a circle until ResetClip.
	ClipCircle(cx, cy, r float64)
	ResetClip()
	// DrawImageRegion scales the src region of img into the dw x dh box at (dx, dy).
	DrawImageRegion(img image.Image, src CropRect, dx, dy, dw, dh int)
	EncodePNG(w io.Writer) error
	Image() image.Image
}

// RasterizerFactory allocates a fresh surface for one render.
type RasterizerFactory func(width, height int) Rasterizer
