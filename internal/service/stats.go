package service

import (
	"context"
	"fmt"

	"github.com/fleveque/og-service/internal/model"
	"github.com/fleveque/og-service/internal/storage"
)

// RenderStats summarises the render log.
type RenderStats struct {
	Total     int64                `json:"total"`
	OK        int64                `json:"ok"`
	Failed    int64                `json:"failed"`
	Requested int64                `json:"requested"`
	Fallback  int64                `json:"fallback"`
	Recent    []model.RenderRecord `json:"recent"`
}

// CollectStats reads the counters shown by the admin endpoint and the CLI.
func CollectStats(ctx context.Context, repo storage.RenderRepository, recent int) (*RenderStats, error) {
	var (
		stats RenderStats
		err   error
	)

	if stats.Total, err = repo.Count(ctx); err != nil {
		return nil, fmt.Errorf("counting renders: %w", err)
	}
	if stats.OK, err = repo.CountByStatus(ctx, model.StatusOK); err != nil {
		return nil, fmt.Errorf("counting ok renders: %w", err)
	}
	if stats.Failed, err = repo.CountByStatus(ctx, model.StatusFailed); err != nil {
		return nil, fmt.Errorf("counting failed renders: %w", err)
	}
	if stats.Requested, err = repo.CountByProvenance(ctx, model.ProvenanceRequested); err != nil {
		return nil, fmt.Errorf("counting requested photos: %w", err)
	}
	if stats.Fallback, err = repo.CountByProvenance(ctx, model.ProvenanceFallback); err != nil {
		return nil, fmt.Errorf("counting default photos: %w", err)
	}
	if stats.Recent, err = repo.Recent(ctx, recent); err != nil {
		return nil, err
	}

	return &stats, nil
}
