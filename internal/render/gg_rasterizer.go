package render

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

type faceKey struct {
	weight FontWeight
	size   float64
}

// ggRasterizer implements Rasterizer on a gg.Context.
type ggRasterizer struct {
	dc    *gg.Context
	fonts *Fonts
	faces map[faceKey]font.Face
}

// NewRasterizer allocates a width x height surface.
func NewRasterizer(width, height int, fonts *Fonts) Rasterizer {
	return &ggRasterizer{
		dc:    gg.NewContext(width, height),
		fonts: fonts,
		faces: make(map[faceKey]font.Face),
	}
}

// NewRasterizerFactory binds fonts so the service can allocate surfaces per request.
func NewRasterizerFactory(fonts *Fonts) RasterizerFactory {
	return func(width, height int) Rasterizer {
		return NewRasterizer(width, height, fonts)
	}
}

func (r *ggRasterizer) FillBackground(c color.Color) {
	r.dc.SetColor(c)
	r.dc.Clear()
}

func (r *ggRasterizer) FillCircle(cx, cy, radius float64, c color.Color) {
	r.dc.DrawCircle(cx, cy, radius)
	r.dc.SetColor(c)
	r.dc.Fill()
}

func (r *ggRasterizer) DrawText(text string, x, y float64, style TextStyle) {
	if text == "" {
		return
	}
	r.dc.SetFontFace(r.face(style.Weight, style.Size))
	r.dc.SetColor(style.Color)

	var ax float64
	switch style.Align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	r.dc.DrawStringAnchored(text, x, y, ax, 0.5)
}

func (r *ggRasterizer) DrawRoundedRect(x, y, w, h, radius float64, c color.Color) {
	roundedRectPath(r.dc, x, y, w, h, radius)
	r.dc.SetColor(c)
	r.dc.Fill()
}

func (r *ggRasterizer) DrawLine(x1, y1, x2, y2, width float64, c color.Color) {
	r.dc.SetLineWidth(width)
	r.dc.SetColor(c)
	r.dc.DrawLine(x1, y1, x2, y2)
	r.dc.Stroke()
}

func (r *ggRasterizer) ClipCircle(cx, cy, radius float64) {
	r.dc.DrawCircle(cx, cy, radius)
	r.dc.Clip()
}

func (r *ggRasterizer) ResetClip() {
	r.dc.ResetClip()
}

func (r *ggRasterizer) DrawImageRegion(img image.Image, src CropRect, dx, dy, dw, dh int) {
	rect := src.Rectangle().Add(img.Bounds().Min)
	if rect.Empty() || dw <= 0 || dh <= 0 {
		return
	}
	region := imaging.Crop(img, rect)
	scaled := imaging.Resize(region, dw, dh, imaging.Lanczos)
	r.dc.DrawImage(scaled, dx, dy)
}

func (r *ggRasterizer) EncodePNG(w io.Writer) error {
	return r.dc.EncodePNG(w)
}

func (r *ggRasterizer) Image() image.Image {
	return r.dc.Image()
}

// face returns a cached face for the weight and size. Faces keep glyph
// caches, so each rasterizer builds its own.
func (r *ggRasterizer) face(weight FontWeight, size float64) font.Face {
	key := faceKey{weight: weight, size: size}
	if f, ok := r.faces[key]; ok {
		return f
	}
	f := truetype.NewFace(r.fonts.family(weight), &truetype.Options{
		Size:    size,
		Hinting: font.HintingFull,
	})
	r.faces[key] = f
	return f
}

// roundedRectPath traces four straight edges joined by quarter-circle arcs.
// The radius is clamped to half the shorter side, so radius = h/2 gives a pill.
func roundedRectPath(dc *gg.Context, x, y, w, h, radius float64) {
	radius = math.Max(0, math.Min(radius, math.Min(w, h)/2))

	dc.NewSubPath()
	dc.MoveTo(x+radius, y)
	dc.LineTo(x+w-radius, y)
	dc.DrawArc(x+w-radius, y+radius, radius, gg.Radians(270), gg.Radians(360))
	dc.LineTo(x+w, y+h-radius)
	dc.DrawArc(x+w-radius, y+h-radius, radius, gg.Radians(0), gg.Radians(90))
	dc.LineTo(x+radius, y+h)
	dc.DrawArc(x+radius, y+h-radius, radius, gg.Radians(90), gg.Radians(180))
	dc.LineTo(x, y+radius)
	dc.DrawArc(x+radius, y+radius, radius, gg.Radians(180), gg.Radians(270))
	dc.ClosePath()
}
