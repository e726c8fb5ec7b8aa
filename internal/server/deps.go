package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fleveque/og-service/internal/config"
	"github.com/fleveque/og-service/internal/render"
	"github.com/fleveque/og-service/internal/service"
	"github.com/fleveque/og-service/internal/storage"
)

// Deps holds everything the handlers need. The server and the CLI build it
// the same way, so a CLI render is byte-for-byte what the endpoint serves.
type Deps struct {
	OGService  *service.OGService
	Images     *storage.FileSystem
	RenderRepo storage.RenderRepository // nil when storage.database_path is empty

	db *sqlx.DB
}

// NewDeps wires storage, fonts, theme and the render pipeline from config.
func NewDeps(cfg *config.Config, logger *zap.Logger) (*Deps, error) {
	images, err := storage.NewFileSystem(cfg.Storage.ImageRoot)
	if err != nil {
		return nil, fmt.Errorf("opening image root: %w", err)
	}

	// A missing default image is reported now, but it isn't fatal: the
	// affected requests fail with 500 and everything else keeps working.
	if _, err := os.Stat(cfg.Storage.DefaultProfileAsset); err != nil {
		logger.Warn("default profile image not readable",
			zap.String("path", cfg.Storage.DefaultProfileAsset),
			zap.Error(err),
		)
	}

	fonts, err := render.LoadFonts()
	if err != nil {
		return nil, fmt.Errorf("loading fonts: %w", err)
	}

	theme, err := render.ThemeFromConfig(cfg.Render)
	if err != nil {
		return nil, fmt.Errorf("building theme: %w", err)
	}

	deps := &Deps{Images: images}

	// The recorder is declared as the interface type so that a disabled
	// render log stays a true nil interface, not a typed nil.
	var recorder service.RenderRecorder
	if cfg.Storage.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
		deps.db = db
		deps.RenderRepo = storage.NewRenderRepository(db)
		recorder = deps.RenderRepo
	}

	deps.OGService = service.NewOGService(
		service.NewImageResolver(images, cfg.Storage.DefaultProfileAsset, logger),
		render.NewCompositor(theme),
		render.NewRasterizerFactory(fonts),
		service.NewEncoder(service.EncoderOptions{
			Optimize:    cfg.Render.Optimize,
			Compression: cfg.Render.Compression,
			Palette:     cfg.Render.Palette,
			Quality:     cfg.Render.Quality,
		}),
		service.Options{
			Timeout:       cfg.Render.Timeout,
			MaxConcurrent: cfg.Render.MaxConcurrent,
		},
		recorder,
		logger,
	)

	return deps, nil
}

// Close flushes queued render log rows and releases the database, if any.
func (d *Deps) Close() error {
	if d.OGService != nil {
		d.OGService.Close()
	}
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
