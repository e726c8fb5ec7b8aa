package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/fleveque/og-service/internal/config"
)

// Theme holds the colors and fixed copy of the preview card.
type Theme struct {
	Background color.RGBA
	BadgeFill  color.RGBA
	BadgeText  color.RGBA
	Text       color.RGBA
	ButtonFill color.RGBA
	ButtonText color.RGBA
	Separator  color.RGBA

	Heading      string
	SubHeading   string
	CallToAction string
	Wordmark     string
}

// DefaultTheme is the brand look used when nothing is configured.
func DefaultTheme() Theme {
	brand := color.RGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	return Theme{
		Background:   brand,
		BadgeFill:    white,
		BadgeText:    color.RGBA{R: 0x8B, G: 0x00, B: 0x00, A: 0xFF},
		Text:         white,
		ButtonFill:   white,
		ButtonText:   brand,
		Separator:    white,
		Heading:      "Blood Needed",
		SubHeading:   "in",
		CallToAction: "I Want to Donate",
		Wordmark:     "Blood Donation Network",
	}
}

// ThemeFromConfig parses the configured hex colors into a Theme.
func ThemeFromConfig(cfg config.RenderConfig) (Theme, error) {
	theme := DefaultTheme()

	// Table of (config value, destination) pairs — one loop instead of seven ifs.
	colors := []struct {
		name string
		hex  string
		dst  *color.RGBA
	}{
		{"brand", cfg.Colors.Brand, &theme.Background},
		{"badge_fill", cfg.Colors.BadgeFill, &theme.BadgeFill},
		{"badge_text", cfg.Colors.BadgeText, &theme.BadgeText},
		{"text", cfg.Colors.Text, &theme.Text},
		{"button_fill", cfg.Colors.ButtonFill, &theme.ButtonFill},
		{"button_text", cfg.Colors.ButtonText, &theme.ButtonText},
		{"separator", cfg.Colors.Separator, &theme.Separator},
	}
	for _, c := range colors {
		if c.hex == "" {
			continue
		}
		parsed, err := ParseHexColor(c.hex)
		if err != nil {
			return Theme{}, fmt.Errorf("render.colors.%s: %w", c.name, err)
		}
		*c.dst = parsed
	}

	if cfg.Text.Heading != "" {
		theme.Heading = cfg.Text.Heading
	}
	if cfg.Text.SubHeading != "" {
		theme.SubHeading = cfg.Text.SubHeading
	}
	if cfg.Text.CallToAct != "" {
		theme.CallToAction = cfg.Text.CallToAct
	}
	if cfg.Text.Wordmark != "" {
		theme.Wordmark = cfg.Text.Wordmark
	}

	return theme, nil
}

// ParseHexColor converts a hex color string (with or without #) to an opaque color.
// Go's fmt.Sscanf is like C's scanf — it parses formatted strings.
func ParseHexColor(hex string) (color.RGBA, error) {
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q (expected 6 characters)", hex)
	}

	var r, g, b uint8
	_, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parsing hex color %q: %w", hex, err)
	}

	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}
