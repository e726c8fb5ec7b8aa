// Package main provides the CLI tool for the og-service.
// Uses Cobra for command parsing — Cobra is the standard Go CLI framework
// (used by kubectl, docker, hugo, and many others).
//
// Run with: go run ./cmd/cli render --blood-group "O+" --out card.png
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/og-service/internal/config"
	"github.com/fleveque/og-service/internal/model"
	"github.com/fleveque/og-service/internal/server"
	"github.com/fleveque/og-service/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd creates the root command. Cobra builds a tree of commands:
// og-cli render --blood-group "AB-" --out card.png
// og-cli stats --recent 10
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "og-cli",
		Short: "Open Graph preview tools",
	}

	root.AddCommand(renderCmd())
	root.AddCommand(statsCmd())
	return root
}

// renderFlags mirrors the /og/request query parameters.
type renderFlags struct {
	bloodGroup   string
	district     string
	upazila      string
	hospitalName string
	name         string
	profileImage string
	out          string
}

func renderCmd() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a preview card to a PNG file",
		// RunE returns an error (vs Run which doesn't). Cobra prints the error automatically.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.bloodGroup, "blood-group", "", "Blood group, e.g. O+")
	cmd.Flags().StringVar(&f.district, "district", "", "District name")
	cmd.Flags().StringVar(&f.upazila, "upazila", "", "Upazila name")
	cmd.Flags().StringVar(&f.hospitalName, "hospital", "", "Hospital name")
	cmd.Flags().StringVar(&f.name, "name", "", "Requester name (default \"Unknown\")")
	cmd.Flags().StringVar(&f.profileImage, "profile-image", "", "Profile image reference under storage.image_root")
	cmd.Flags().StringVarP(&f.out, "out", "o", "og-request.png", "Output file")
	return cmd
}

func statsCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print render log counts as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), recent)
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 10, "Number of recent renders to include")
	return cmd
}

// setup loads config and builds the same dependencies the server uses.
func setup() (*server.Deps, *zap.Logger, error) {
	configPath := os.Getenv("OG_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Set up logger (always use development mode for CLI)
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	deps, err := server.NewDeps(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("building dependencies: %w", err)
	}
	return deps, logger, nil
}

// signalContext is cancelled on Ctrl+C so long operations stop cleanly.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runRender(ctx context.Context, f renderFlags) error {
	deps, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer deps.Close()

	ctx, cancel := signalContext(ctx)
	defer cancel()

	if f.profileImage != "" && !deps.Images.Exists(f.profileImage) {
		logger.Warn("profile image not found, the default image will be drawn",
			zap.String("profile_image", f.profileImage))
	}

	req := model.NewRenderRequest(f.bloodGroup, f.district, f.upazila, f.hospitalName, f.name, f.profileImage)
	result, err := deps.OGService.Render(ctx, req)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	if err := os.WriteFile(f.out, result.PNG, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", f.out, err)
	}

	logger.Info("render complete",
		zap.String("out", f.out),
		zap.String("provenance", string(result.Provenance)),
		zap.Int("bytes", len(result.PNG)),
		zap.Duration("duration", result.Duration),
	)
	return nil
}

func runStats(ctx context.Context, recent int) error {
	deps, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer deps.Close()

	if deps.RenderRepo == nil {
		return fmt.Errorf("render log disabled: storage.database_path is empty")
	}

	ctx, cancel := signalContext(ctx)
	defer cancel()

	stats, err := service.CollectStats(ctx, deps.RenderRepo, recent)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
