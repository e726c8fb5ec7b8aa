package render

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts holds the parsed font families. A parsed *truetype.Font is read-only
// and can be shared across goroutines; the faces built from it cannot.
type Fonts struct {
	regular *truetype.Font
	bold    *truetype.Font
}

// LoadFonts parses the Go fonts bundled with golang.org/x/image.
func LoadFonts() (*Fonts, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bold font: %w", err)
	}
	return &Fonts{regular: regular, bold: bold}, nil
}

func (f *Fonts) family(weight FontWeight) *truetype.Font {
	if weight == Bold {
		return f.bold
	}
	return f.regular
}
