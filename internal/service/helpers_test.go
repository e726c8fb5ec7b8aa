package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/fleveque/og-service/internal/model"
	"github.com/fleveque/og-service/internal/storage"
)

// createTestPNG generates a small solid-color PNG image in memory.
// Go's standard library includes image encoding/decoding — no external deps needed.
// image.NRGBA is a non-premultiplied alpha image (common for PNGs with transparency).
func createTestPNG(width, height int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err) // only in tests — panics are acceptable for impossible failures
	}
	return buf.Bytes()
}

// Marker colors let tests tell which image ended up on the card.
var (
	requestedMarker = color.RGBA{R: 0x10, G: 0xC0, B: 0x10, A: 0xFF}
	fallbackMarker  = color.RGBA{R: 0x10, G: 0x10, B: 0xC0, A: 0xFF}
)

type fixture struct {
	fs           *storage.FileSystem
	fallbackPath string
}

// newFixture creates an image root and a default profile image on disk.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	fs, err := storage.NewFileSystem(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	fallbackPath := filepath.Join(dir, "assets", "default-profile.png")
	if err := os.MkdirAll(filepath.Dir(fallbackPath), 0755); err != nil {
		t.Fatalf("creating assets dir: %v", err)
	}
	if err := os.WriteFile(fallbackPath, createTestPNG(64, 64, fallbackMarker), 0644); err != nil {
		t.Fatalf("writing default profile: %v", err)
	}

	return &fixture{fs: fs, fallbackPath: fallbackPath}
}

func (f *fixture) resolver() *ImageResolver {
	return NewImageResolver(f.fs, f.fallbackPath, zap.NewNop())
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

// memoryRecorder is an in-memory RenderRecorder.
type memoryRecorder struct {
	mu      sync.Mutex
	records []model.RenderRecord
}

func (m *memoryRecorder) Create(_ context.Context, rec *model.RenderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

func (m *memoryRecorder) all() []model.RenderRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.RenderRecord(nil), m.records...)
}
