package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileSystem(tmpDir)
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	// Write a fake PNG (just some bytes for testing)
	fakeImage := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	if err := fs.Write("profiles/karim.png", fakeImage); err != nil {
		t.Fatalf("writing image: %v", err)
	}

	if !fs.Exists("profiles/karim.png") {
		t.Error("expected image to exist after write")
	}

	data, err := fs.Read("profiles/karim.png")
	if err != nil {
		t.Fatalf("reading image: %v", err)
	}

	if len(data) != len(fakeImage) {
		t.Fatalf("expected %d bytes, got %d", len(fakeImage), len(data))
	}
	for i, b := range data {
		if b != fakeImage[i] {
			t.Errorf("byte %d: expected %x, got %x", i, fakeImage[i], b)
		}
	}
}

func TestFileSystem_Read_NotFound(t *testing.T) {
	fs, err := NewFileSystem(t.TempDir())
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	_, err = fs.Read("nope.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if fs.Exists("nope.png") {
		t.Error("expected non-existent image to return false")
	}
}

func TestFileSystem_ImagePath(t *testing.T) {
	fs := &FileSystem{baseDir: "/data/uploads"}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"plain file", "a.png", "/data/uploads/a.png", false},
		{"nested", "2024/05/a.png", "/data/uploads/2024/05/a.png", false},
		{"leading slash", "/a.png", "/data/uploads/a.png", false},
		{"traversal is clamped", "../../etc/passwd", "/data/uploads/etc/passwd", false},
		{"empty", "", "", true},
		{"only dots", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.ImagePath(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ImagePath(%q) error = %v, wantErr = %v", tt.ref, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ImagePath(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestFileSystem_TraversalCannotReadOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "uploads")
	fs, err := NewFileSystem(root)
	if err != nil {
		t.Fatalf("creating filesystem: %v", err)
	}

	secret := filepath.Join(parent, "secret.png")
	if err := os.WriteFile(secret, []byte("secret"), 0644); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	if _, err := fs.Read("../secret.png"); err == nil {
		t.Error("expected traversal outside the root to fail")
	}
}

func TestReadAsset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.png")
	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		t.Fatalf("writing asset: %v", err)
	}

	data, err := ReadAsset(path)
	if err != nil {
		t.Fatalf("reading asset: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("expected asset contents, got %q", data)
	}

	_, err = ReadAsset(path + ".missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing asset, got %v", err)
	}
}
