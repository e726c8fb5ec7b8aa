package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for references that would escape the image root.
var ErrOutsideRoot = errors.New("path escapes image root")

// FileSystem reads profile images written by the upload subsystem.
// Images are stored at: {baseDir}/{ref}
type FileSystem struct {
	baseDir string
}

// NewFileSystem creates a new FileSystem storage, ensuring the base directory exists.
func NewFileSystem(baseDir string) (*FileSystem, error) {
	// MkdirAll creates the directory and all parents (like mkdir -p).
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving image directory: %w", err)
	}
	return &FileSystem{baseDir: abs}, nil
}

// ImagePath returns the filesystem path for a profile image reference.
// The ref is cleaned as if it were rooted, so "../../etc/passwd" can never
// point outside baseDir.
func (fs *FileSystem) ImagePath(ref string) (string, error) {
	cleaned := filepath.Clean(string(filepath.Separator) + ref)
	if cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("empty image reference")
	}
	path := filepath.Join(fs.baseDir, cleaned)
	if !strings.HasPrefix(path, fs.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, ref)
	}
	return path, nil
}

// Read reads a profile image from disk. Returns the raw bytes.
func (fs *FileSystem) Read(ref string) ([]byte, error) {
	path, err := fs.ImagePath(ref)
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// Write saves an image under the root, creating parent directories if needed.
func (fs *FileSystem) Write(ref string, data []byte) error {
	path, err := fs.ImagePath(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}
	// 0644: owner rw, group r, others r — standard for non-executable files.
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing image file: %w", err)
	}
	return nil
}

// Exists checks if an image file exists on disk.
func (fs *FileSystem) Exists(ref string) bool {
	path, err := fs.ImagePath(ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// ReadAsset reads a file bundled with the deployment (e.g. the default
// profile image). It is not confined to any root.
func ReadAsset(path string) ([]byte, error) {
	return readFile(path)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading image file: %w", err)
	}
	return data, nil
}
