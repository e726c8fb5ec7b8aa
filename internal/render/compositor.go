package render

import (
	"github.com/fleveque/og-service/internal/model"
)

// Card geometry, in canvas pixels. The canvas is model.CanvasWidth x
// model.CanvasHeight; everything below is laid out for 1200x630.
const (
	centerX = model.CanvasWidth / 2

	badgeCY     = 115
	badgeRadius = 77

	headingY    = 238
	subHeadingY = 283
	hospitalY   = 328
	locationY   = 370

	buttonW      = 320
	buttonH      = 60
	buttonX      = centerX - buttonW/2
	buttonY      = 398
	buttonRadius = buttonH / 2

	separatorTop    = buttonY + buttonH + 20
	separatorBottom = model.CanvasHeight - 25
	separatorWidth  = 3

	photoCX     = 140
	photoCY     = 540
	photoRadius = 59
	photoSide   = 2 * photoRadius
	photoX      = photoCX - photoRadius
	photoY      = photoCY - photoRadius

	nameX     = photoCX + photoRadius + 20
	wordmarkX = model.CanvasWidth - 40
)

// Font sizes in points (1pt = 1px at gg's 72 DPI).
const (
	badgeTextSize  = 60
	headingSize    = 48
	subHeadingSize = 30
	hospitalSize   = 36
	locationSize   = 28
	buttonTextSize = 26
	nameSize       = 34
	wordmarkSize   = 28
)

// Compositor lays out the preview card on a Rasterizer.
type Compositor struct {
	theme Theme
}

// NewCompositor creates a Compositor with the given theme.
func NewCompositor(theme Theme) *Compositor {
	return &Compositor{theme: theme}
}

// Compose draws the card. The order matters: later steps paint over earlier ones.
func (c *Compositor) Compose(r Rasterizer, req model.RenderRequest, photo *model.ResolvedImage) {
	t := c.theme

	r.FillBackground(t.Background)

	r.FillCircle(centerX, badgeCY, badgeRadius, t.BadgeFill)
	r.DrawText(req.BloodGroup, centerX, badgeCY, TextStyle{Weight: Bold, Size: badgeTextSize, Color: t.BadgeText, Align: AlignCenter})

	r.DrawText(t.Heading, centerX, headingY, TextStyle{Weight: Bold, Size: headingSize, Color: t.Text, Align: AlignCenter})
	r.DrawText(t.SubHeading, centerX, subHeadingY, TextStyle{Weight: Regular, Size: subHeadingSize, Color: t.Text, Align: AlignCenter})

	r.DrawText(req.HospitalName, centerX, hospitalY, TextStyle{Weight: Bold, Size: hospitalSize, Color: t.Text, Align: AlignCenter})
	r.DrawText(req.Location(), centerX, locationY, TextStyle{Weight: Regular, Size: locationSize, Color: t.Text, Align: AlignCenter})

	r.DrawRoundedRect(buttonX, buttonY, buttonW, buttonH, buttonRadius, t.ButtonFill)
	r.DrawText(t.CallToAction, centerX, buttonY+buttonH/2, TextStyle{Weight: Bold, Size: buttonTextSize, Color: t.ButtonText, Align: AlignCenter})

	r.DrawLine(centerX, separatorTop, centerX, separatorBottom, separatorWidth, t.Separator)

	if photo != nil {
		r.ClipCircle(photoCX, photoCY, photoRadius)
		crop := CoverCrop(photo.Width, photo.Height, photoSide)
		r.DrawImageRegion(photo.Image, crop, photoX, photoY, photoSide, photoSide)
		r.ResetClip()
	}

	r.DrawText(req.RequesterName, nameX, photoCY, TextStyle{Weight: Bold, Size: nameSize, Color: t.Text, Align: AlignLeft})
	r.DrawText(t.Wordmark, wordmarkX, photoCY, TextStyle{Weight: Bold, Size: wordmarkSize, Color: t.Text, Align: AlignRight})
}
